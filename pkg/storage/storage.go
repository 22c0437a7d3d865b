// Package storage persists global-model snapshots keyed by a time tag.
// Synchronous rounds keep a single canonical snapshot under CurrentTag;
// asynchronous rounds tag each snapshot with the simulated time that
// produced it, so a group can later retrieve the model it downloaded.
package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/absmach/fedsim/pkg/model"
)

// CurrentTag is the canonical snapshot key used by synchronous rounds.
const CurrentTag = "current"

// TimeTag formats a simulated time as a snapshot tag.
func TimeTag(t float64) string {
	return strconv.FormatFloat(t, 'f', 3, 64)
}

// ParseTag recovers the simulated time from a snapshot tag.
func ParseTag(tag string) (float64, error) {
	t, err := strconv.ParseFloat(tag, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable snapshot tag %q: %w", tag, err)
	}

	return t, nil
}

// Snapshots stores and retrieves weight snapshots by tag. Prune removes
// snapshots tagged strictly older than the cutoff; it is best-effort
// cleanup and skips entries it cannot interpret.
type Snapshots interface {
	Save(ctx context.Context, tag string, w model.Weights) error
	Load(ctx context.Context, tag string) (model.Weights, error)
	Prune(ctx context.Context, before float64) error
}
