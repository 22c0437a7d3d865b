package server

import (
	"container/heap"
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedsim"
	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/aggregator"
	"github.com/absmach/fedsim/pkg/data"
	"github.com/absmach/fedsim/pkg/model"
	"github.com/absmach/fedsim/pkg/storage"
	"github.com/absmach/fedsim/round"
)

// incrementTrainer adds one to the snapshot it was configured with, so
// the lineage of every aggregation is visible in the weight values.
type incrementTrainer struct{}

func (incrementTrainer) Init() model.Weights {
	return model.Weights{{Name: "w", Data: []float64{0}}}
}

func (incrementTrainer) Train(_ context.Context, w model.Weights, part data.Partition, _, _ int) (model.TrainResult, error) {
	out := w.Clone()
	out[0].Data[0]++

	return model.TrainResult{Weights: out, NumSamples: len(part), Accuracy: 0.5}, nil
}

// orderedSelector picks the first k clients in pool order, one group
// each, so tests control exactly which client lands in which group.
type orderedSelector struct{}

func (orderedSelector) Select(pool []*client.Client, k int) ([]*round.Group, error) {
	groups := make([]*round.Group, 0, k)
	for _, c := range pool[:k] {
		g, err := round.NewGroup([]*client.Client{c})
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, nil
}

func testPartition(n int) data.Partition {
	p := make(data.Partition, n)
	for i := range p {
		p[i] = data.Sample{Features: []float64{0}, Label: 0}
	}

	return p
}

func newTestService(t *testing.T, cfg *fedsim.Config, delays []float64) *service {
	t.Helper()

	trainer := incrementTrainer{}
	svc := &service{
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		selector:  orderedSelector{},
		snapshots: storage.NewMemorySnapshots(),
		trainer:   trainer,
		avg:       aggregator.NewFedAvg(),
	}

	if cfg.Sync.Type == fedsim.ModeAsync {
		staleness, err := aggregator.StalenessByName(cfg.Sync.StalenessFunc)
		require.NoError(t, err)
		svc.fedAsync, err = aggregator.NewFedAsync(cfg.Sync.Alpha, staleness)
		require.NoError(t, err)
	}

	for _, d := range delays {
		c := client.New(trainer, client.FixedDelay(d))
		c.SetData(testPartition(10))
		svc.clients = append(svc.clients, c)
	}

	svc.weights = trainer.Init()
	require.NoError(t, svc.snapshots.Save(context.Background(), storage.TimeTag(0), svc.weights))

	return svc
}

func asyncConfig(delays int) *fedsim.Config {
	return &fedsim.Config{
		Loader: fedsim.LoaderBasic,
		Clients: fedsim.ClientsConfig{
			Total:    delays,
			PerRound: delays,
			DoTest:   true,
		},
		Data: fedsim.DataConfig{IID: true, Loading: fedsim.LoadingStatic},
		FL:   fedsim.FLConfig{Rounds: 1, Epochs: 1, BatchSize: 8},
		Sync: fedsim.SyncConfig{
			Type:          fedsim.ModeAsync,
			Interval:      10,
			Alpha:         1,
			StalenessFunc: aggregator.StalenessConstant,
		},
	}
}

func TestAsyncRoundEventOrder(t *testing.T) {
	// Two single-client groups with delays 2 and 5 cycling through a
	// window of 10. The window is checked at re-enqueue only, so both
	// groups run one final overshooting pass before retiring.
	svc := newTestService(t, asyncConfig(2), []float64{2, 5})

	accuracy, tNew, err := svc.AsyncRound(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, accuracy)
	assert.Equal(t, 15.0, tNew)

	record := svc.Trace()
	assert.Equal(t, []float64{2, 4, 5, 6, 8, 10, 10, 12, 15}, record.T)
	for i := 1; i < record.Len(); i++ {
		assert.GreaterOrEqual(t, record.T[i], record.T[i-1], "aggregations must come off the queue in time order")
	}
}

func TestAsyncRoundWeightLineage(t *testing.T) {
	// With alpha=1 and the constant staleness function every aggregation
	// adopts the group's update outright, so the final global weight
	// counts the training passes along the longest snapshot chain.
	svc := newTestService(t, asyncConfig(2), []float64{2, 5})

	_, _, err := svc.AsyncRound(context.Background(), 1, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 6.0, svc.weights[0].Data[0])
}

func TestAsyncRoundStalenessDiscount(t *testing.T) {
	// A lone group re-training against its own snapshots keeps its
	// staleness at its own delay, inside the hinge's flat region, so
	// every update is adopted undiscounted.
	cfg := asyncConfig(1)
	cfg.Sync.StalenessFunc = aggregator.StalenessHinge
	cfg.Sync.Interval = 6
	svc := newTestService(t, cfg, []float64{3})

	_, tNew, err := svc.AsyncRound(context.Background(), 1, 0, 6)
	require.NoError(t, err)

	assert.Equal(t, 9.0, tNew)
	assert.Equal(t, []float64{3, 6, 9}, svc.Trace().T)
	assert.Equal(t, 3.0, svc.weights[0].Data[0])
}

func TestAsyncRoundSnapshotPerAggregation(t *testing.T) {
	svc := newTestService(t, asyncConfig(1), []float64{2})

	_, _, err := svc.AsyncRound(context.Background(), 1, 0, 4)
	require.NoError(t, err)

	for tag, want := range map[string]float64{"2.000": 1, "4.000": 2, "6.000": 3} {
		w, err := svc.snapshots.Load(context.Background(), tag)
		require.NoError(t, err)
		assert.Equal(t, want, w[0].Data[0])
	}
}

func TestGroupQueueOrdering(t *testing.T) {
	g, err := round.NewGroup([]*client.Client{client.New(nil, client.FixedDelay(1))})
	require.NoError(t, err)

	queue := groupQueue{
		{at: 5, seq: 1, group: g},
		{at: 2, seq: 4, group: g},
		{at: 5, seq: 0, group: g},
		{at: 3, seq: 2, group: g},
	}
	heap.Init(&queue)
	heap.Push(&queue, &groupEntry{at: 2, seq: 3, group: g})

	var ats []float64
	var seqs []uint64
	for queue.Len() > 0 {
		entry := heap.Pop(&queue).(*groupEntry)
		ats = append(ats, entry.at)
		seqs = append(seqs, entry.seq)
	}

	assert.Equal(t, []float64{2, 2, 3, 5, 5}, ats)
	assert.Equal(t, []uint64{3, 4, 2, 0, 1}, seqs)
}
