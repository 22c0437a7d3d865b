package selector

import (
	"math/rand"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/round"
)

type random struct {
	rng *rand.Rand
}

// NewRandom samples k distinct clients uniformly without replacement and
// places each in its own group. A seeded rng keeps runs reproducible.
func NewRandom(rng *rand.Rand) Selector {
	return &random{rng: rng}
}

func (s *random) Select(pool []*client.Client, k int) ([]*round.Group, error) {
	if len(pool) == 0 {
		return nil, ErrNoClients
	}
	if k < 1 || k > len(pool) {
		return nil, ErrSampleSize
	}

	groups := make([]*round.Group, 0, k)
	for _, idx := range s.rng.Perm(len(pool))[:k] {
		g, err := round.NewGroup([]*client.Client{pool[idx]})
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, nil
}
