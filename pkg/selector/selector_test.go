package selector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim/client"
)

func pool(n int) []*client.Client {
	clients := make([]*client.Client, n)
	for i := range clients {
		clients[i] = client.New(nil, client.FixedDelay(1))
	}

	return clients
}

func TestRandomSelect(t *testing.T) {
	tests := []struct {
		name string
		pool int
		k    int
		err  error
	}{
		{name: "sample subset", pool: 10, k: 4},
		{name: "sample whole pool", pool: 5, k: 5},
		{name: "single client", pool: 5, k: 1},
		{name: "empty pool", pool: 0, k: 1, err: ErrNoClients},
		{name: "zero sample", pool: 5, k: 0, err: ErrSampleSize},
		{name: "oversample", pool: 5, k: 6, err: ErrSampleSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sel := NewRandom(rand.New(rand.NewSource(1)))

			groups, err := sel.Select(pool(tc.pool), tc.k)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			require.Len(t, groups, tc.k)

			seen := make(map[string]bool)
			for _, g := range groups {
				require.Len(t, g.Clients, 1, "default grouping is one client per group")
				assert.False(t, seen[g.Clients[0].ID], "clients must be distinct")
				seen[g.Clients[0].ID] = true
			}
		})
	}
}

func TestRandomSelectDoesNotMutatePool(t *testing.T) {
	clients := pool(8)
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}

	sel := NewRandom(rand.New(rand.NewSource(7)))
	_, err := sel.Select(clients, 4)
	require.NoError(t, err)

	for i, c := range clients {
		assert.Equal(t, ids[i], c.ID)
	}
}

func TestRandomSelectDeterministic(t *testing.T) {
	clients := pool(20)

	first, err := NewRandom(rand.New(rand.NewSource(42))).Select(clients, 5)
	require.NoError(t, err)
	second, err := NewRandom(rand.New(rand.NewSource(42))).Select(clients, 5)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Clients[0].ID, second[i].Clients[0].ID)
	}
}
