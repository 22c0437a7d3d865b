package server

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"

	"github.com/absmach/fedsim/pkg/storage"
	"github.com/absmach/fedsim/round"
)

// groupEntry orders pending groups by completion time. The insertion
// sequence breaks ties so the loop is deterministic for a fixed seed.
type groupEntry struct {
	at    float64
	seq   uint64
	group *round.Group
}

type groupQueue []*groupEntry

func (q groupQueue) Len() int { return len(q) }

func (q groupQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}

	return q[i].seq < q[j].seq
}

func (q groupQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *groupQueue) Push(x any) {
	*q = append(*q, x.(*groupEntry))
}

func (q *groupQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return entry
}

// AsyncRound simulates one asynchronous window of length tAsync starting
// at tOld. Groups complete independently in aggregate-time order; each
// completion blends into the current global model with a staleness
// discount, then the group re-enqueues for another cycle while the
// window allows. The window is checked only at re-enqueue, so a group's
// first pass always executes even if it overshoots.
func (s *service) AsyncRound(ctx context.Context, num int, tOld, tAsync float64) (float64, float64, error) {
	groups, err := s.selection()
	if err != nil {
		return 0, 0, err
	}

	queue := make(groupQueue, 0, len(groups))
	for _, g := range groups {
		for _, c := range g.Clients {
			c.SetDelay()
		}
		g.SetDownloadTime(tOld)
		if err := g.SetAggregateTime(); err != nil {
			return 0, 0, err
		}
		queue = append(queue, &groupEntry{at: g.AggregateTime(), seq: s.nextSeq(), group: g})
	}
	heap.Init(&queue)

	for queue.Len() > 0 {
		entry := heap.Pop(&queue).(*groupEntry)
		g := entry.group

		if err := s.asyncConfiguration(ctx, g.Clients, g.DownloadTime()); err != nil {
			return 0, 0, err
		}

		reports, err := s.trainClients(ctx, g.Clients, true)
		if err != nil {
			return 0, 0, err
		}
		tCur := g.AggregateTime()
		s.logger.Info("group training finished",
			slog.Int("clients", len(g.Clients)),
			slog.Float64("t", tCur))

		staleness := g.Staleness()
		alphaT := s.fedAsync.AlphaT(staleness)
		s.logger.Info("aggregating updates",
			slog.String("staleness_func", s.cfg.Sync.StalenessFunc),
			slog.Float64("staleness", staleness),
			slog.Float64("alpha_t", alphaT))

		updated, err := s.fedAsync.Aggregate(s.weights, reports, staleness)
		if err != nil {
			return 0, 0, err
		}
		s.weights = updated

		if s.reports != nil {
			s.reports.save(num, reports, s.weights)
		}

		if err := s.snapshots.Save(ctx, storage.TimeTag(tCur), s.weights); err != nil {
			return 0, 0, fmt.Errorf("failed to save global snapshot: %w", err)
		}

		accuracy, err := s.evaluate(ctx, reports)
		if err != nil {
			return 0, 0, err
		}
		s.logger.Info("accuracy", slog.Float64("accuracy", accuracy), slog.Float64("t", tCur))

		if err := s.appendRecord(tCur, accuracy); err != nil {
			return 0, 0, err
		}

		if tCur-tOld <= tAsync {
			g.SetDownloadTime(tCur)
			for _, c := range g.Clients {
				c.SetDelay()
			}
			if err := g.SetAggregateTime(); err != nil {
				return 0, 0, err
			}
			heap.Push(&queue, &groupEntry{at: g.AggregateTime(), seq: s.nextSeq(), group: g})
		} else {
			s.logger.Info("group retired", slog.Float64("t", tCur))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	accuracy, err := s.record.LatestAcc()
	if err != nil {
		return 0, 0, err
	}
	t, err := s.record.LatestT()
	if err != nil {
		return 0, 0, err
	}

	return accuracy, t, nil
}

func (s *service) nextSeq() uint64 {
	s.seq++

	return s.seq
}
