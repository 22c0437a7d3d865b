package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/storage"
)

// SyncRound runs one barrier round: all selected clients train in
// parallel and the slowest one gates the round's simulated duration.
func (s *service) SyncRound(ctx context.Context, num int, tOld float64) (float64, float64, error) {
	groups, err := s.selection()
	if err != nil {
		return 0, 0, err
	}

	var sampleClients []*client.Client
	for _, g := range groups {
		for _, c := range g.Clients {
			c.SetDelay()
			sampleClients = append(sampleClients, c)
		}
		g.SetDownloadTime(tOld)
		if err := g.SetAggregateTime(); err != nil {
			return 0, 0, err
		}
	}

	if err := s.configuration(sampleClients); err != nil {
		return 0, 0, err
	}

	maxDelay := 0.0
	for _, c := range sampleClients {
		if d := c.Delay(); d > maxDelay {
			maxDelay = d
		}
	}

	reports, err := s.trainClients(ctx, sampleClients, false)
	if err != nil {
		return 0, 0, err
	}
	tCur := tOld + maxDelay

	s.logger.Info("aggregating updates", slog.Int("reports", len(reports)))
	updated, err := s.avg.Aggregate(s.weights, reports)
	if err != nil {
		return 0, 0, err
	}
	s.weights = updated

	if s.reports != nil {
		s.reports.save(num, reports, s.weights)
	}

	if err := s.snapshots.Save(ctx, storage.CurrentTag, s.weights); err != nil {
		return 0, 0, fmt.Errorf("failed to save global snapshot: %w", err)
	}

	accuracy, err := s.evaluate(ctx, reports)
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("round finished",
		slog.Int("round", num),
		slog.Float64("accuracy", accuracy),
		slog.Float64("t", tCur))

	if err := s.appendRecord(tCur, accuracy); err != nil {
		return 0, 0, err
	}

	return accuracy, tCur, nil
}
