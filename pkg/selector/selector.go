package selector

import (
	"errors"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/round"
)

var (
	ErrNoClients  = errors.New("no clients were provided")
	ErrSampleSize = errors.New("sample size out of range")
)

// Selector picks the clients participating in a round and partitions
// them into groups. Implementations must not mutate the pool.
type Selector interface {
	Select(pool []*client.Client, k int) ([]*round.Group, error)
}
