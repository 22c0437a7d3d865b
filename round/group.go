// Package round holds the scheduling-unit and trace types shared by the
// round drivers.
package round

import (
	"errors"

	"github.com/absmach/fedsim/client"
)

var (
	ErrEmptyGroup     = errors.New("group has no clients")
	ErrNoDownloadTime = errors.New("download time has not been set")
	ErrTimeWentBack   = errors.New("trace time went backwards")
	ErrEmptyRecord    = errors.New("record is empty")
)

// Group is a set of clients trained and aggregated together. For async
// rounds the same group cycles through train-report-retrain, getting a
// fresh download and aggregate time on each re-enqueue.
type Group struct {
	Clients []*client.Client

	downloadTime  float64
	aggregateTime float64
	hasDownload   bool
}

func NewGroup(clients []*client.Client) (*Group, error) {
	if len(clients) == 0 {
		return nil, ErrEmptyGroup
	}

	return &Group{Clients: clients}, nil
}

// SetDownloadTime marks the simulated time at which this group's clients
// begin training against a global-model snapshot.
func (g *Group) SetDownloadTime(t float64) {
	g.downloadTime = t
	g.hasDownload = true
}

// SetAggregateTime derives the completion time from the slowest client's
// delay. Only valid after client delays are set for the pass.
func (g *Group) SetAggregateTime() error {
	if !g.hasDownload {
		return ErrNoDownloadTime
	}

	maxDelay := 0.0
	for _, c := range g.Clients {
		if d := c.Delay(); d > maxDelay {
			maxDelay = d
		}
	}
	g.aggregateTime = g.downloadTime + maxDelay

	return nil
}

func (g *Group) DownloadTime() float64 {
	return g.downloadTime
}

func (g *Group) AggregateTime() float64 {
	return g.aggregateTime
}

// Staleness is the elapsed simulated time between this group's snapshot
// download and its update becoming ready to apply.
func (g *Group) Staleness() float64 {
	return g.aggregateTime - g.downloadTime
}
