package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim/client"
)

func newClient(delay float64) *client.Client {
	c := client.New(nil, client.FixedDelay(delay))
	c.SetDelay()

	return c
}

func TestNewGroup(t *testing.T) {
	_, err := NewGroup(nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)

	g, err := NewGroup([]*client.Client{newClient(1)})
	require.NoError(t, err)
	assert.Len(t, g.Clients, 1)
}

func TestGroupAggregateTime(t *testing.T) {
	g, err := NewGroup([]*client.Client{newClient(2), newClient(5), newClient(3)})
	require.NoError(t, err)

	assert.ErrorIs(t, g.SetAggregateTime(), ErrNoDownloadTime)

	g.SetDownloadTime(10)
	require.NoError(t, g.SetAggregateTime())
	assert.Equal(t, 10.0, g.DownloadTime())
	assert.Equal(t, 15.0, g.AggregateTime())
	assert.Equal(t, 5.0, g.Staleness())
	assert.GreaterOrEqual(t, g.AggregateTime(), g.DownloadTime())
}

func TestGroupReenqueueResetsTimes(t *testing.T) {
	g, err := NewGroup([]*client.Client{newClient(2)})
	require.NoError(t, err)

	g.SetDownloadTime(0)
	require.NoError(t, g.SetAggregateTime())
	assert.Equal(t, 2.0, g.AggregateTime())

	g.SetDownloadTime(7)
	require.NoError(t, g.SetAggregateTime())
	assert.Equal(t, 9.0, g.AggregateTime())
}
