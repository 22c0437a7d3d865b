// Package server owns the global model state and drives federated
// learning rounds over a pool of simulated clients.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedsim"
	"github.com/absmach/fedsim/client"
	"github.com/absmach/fedsim/pkg/aggregator"
	"github.com/absmach/fedsim/pkg/data"
	"github.com/absmach/fedsim/pkg/model"
	"github.com/absmach/fedsim/pkg/selector"
	"github.com/absmach/fedsim/pkg/storage"
	"github.com/absmach/fedsim/round"
)

// Service is the simulation server. Boot prepares data, model and
// clients; Run executes the multi-round loop; the round drivers are the
// two interchangeable control loops of the simulation.
type Service interface {
	Boot(ctx context.Context) error
	Run(ctx context.Context) (round.Record, error)
	SyncRound(ctx context.Context, num int, tOld float64) (float64, float64, error)
	AsyncRound(ctx context.Context, num int, tOld, tAsync float64) (float64, float64, error)
	Trace() round.Record
}

type service struct {
	cfg       *fedsim.Config
	logger    *slog.Logger
	rng       *rand.Rand
	selector  selector.Selector
	snapshots storage.Snapshots
	trainer   model.Trainer
	evaluator model.Evaluator
	avg       aggregator.FedAvg
	fedAsync  aggregator.FedAsync

	loader  data.Loader
	clients []*client.Client
	weights model.Weights
	reports *reportSink
	seq     uint64

	mu     sync.RWMutex
	record round.Record
}

func NewService(cfg *fedsim.Config, sel selector.Selector, snapshots storage.Snapshots, trainer model.Trainer, evaluator model.Evaluator, logger *slog.Logger) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &service{
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		selector:  sel,
		snapshots: snapshots,
		trainer:   trainer,
		evaluator: evaluator,
		avg:       aggregator.NewFedAvg(),
	}

	if cfg.Sync.Type == fedsim.ModeAsync {
		staleness, err := aggregator.StalenessByName(cfg.Sync.StalenessFunc)
		if err != nil {
			return nil, err
		}
		svc.fedAsync, err = aggregator.NewFedAsync(cfg.Sync.Alpha, staleness)
		if err != nil {
			return nil, err
		}
	}

	return svc, nil
}

// Boot generates the dataset, initializes the global model and its first
// snapshot, and creates the simulated client pool.
func (s *service) Boot(ctx context.Context) error {
	s.logger.Info("booting server", slog.String("mode", s.cfg.Sync.Type))

	if err := s.loadData(); err != nil {
		return err
	}
	if err := s.loadModel(ctx); err != nil {
		return err
	}

	return s.makeClients()
}

func (s *service) loadData() error {
	mc := s.cfg.Model
	generator := data.NewSyntheticGenerator(mc.Labels, mc.Dim, mc.PerLabel, mc.Noise, s.rng)

	dataset := generator.Generate()
	s.logger.Info("dataset generated",
		slog.Int("size", dataset.Size()),
		slog.Int("labels", len(generator.Labels())))

	switch s.cfg.Loader {
	case fedsim.LoaderBasic:
		s.loader = data.NewBasicLoader(generator, mc.TestFraction, s.rng)
	case fedsim.LoaderBias:
		s.loader = data.NewBiasLoader(generator, mc.TestFraction, s.cfg.Data.Bias, s.rng)
	case fedsim.LoaderShard:
		s.loader = data.NewShardLoader(generator, mc.TestFraction, s.cfg.Clients.Total, s.cfg.Data.Shard, s.rng)
	default:
		return fmt.Errorf("%w: %q", fedsim.ErrUnknownLoader, s.cfg.Loader)
	}

	s.logger.Info("loader ready",
		slog.String("loader", s.cfg.Loader),
		slog.Bool("iid", s.cfg.Data.IID))

	return nil
}

func (s *service) loadModel(ctx context.Context) error {
	s.weights = s.trainer.Init()
	s.logger.Info("model initialized", slog.String("model", s.cfg.Model.Name))

	if err := s.snapshots.Save(ctx, storage.TimeTag(0), s.weights); err != nil {
		return fmt.Errorf("failed to save initial snapshot: %w", err)
	}

	if s.cfg.Paths.Reports != "" {
		s.reports = newReportSink(s.cfg.Paths.Reports)
		s.reports.save(0, nil, s.weights)
	}

	return nil
}

func (s *service) makeClients() error {
	cc := s.cfg.Clients

	var dist []float64
	if !s.cfg.Data.IID {
		labels := s.loader.Labels()
		switch cc.LabelDistribution {
		case fedsim.DistUniform:
			dist = data.Uniform(cc.Total, len(labels))
		case fedsim.DistNormal:
			dist = data.Normal(cc.Total, len(labels))
		default:
			return fmt.Errorf("%w: %q", fedsim.ErrUnknownDist, cc.LabelDistribution)
		}
		data.Shuffle(dist, s.rng)
	}

	clients := make([]*client.Client, 0, cc.Total)
	for range cc.Total {
		crng := rand.New(rand.NewSource(s.rng.Int63()))
		c := client.New(s.trainer, client.LinkDelay(s.cfg.Model.SizeKB, cc.SpeedMin, cc.SpeedMax, crng))

		if !s.cfg.Data.IID {
			switch {
			case s.cfg.Data.Bias > 0:
				pref := data.WeightedChoice(dist, s.rng)
				c.SetBias(pref, s.cfg.Data.Bias)
			case s.cfg.Data.Shard > 0:
				c.SetShard(s.cfg.Data.Shard)
			}
		}

		clients = append(clients, c)
	}
	s.clients = clients
	s.logger.Info("clients created", slog.Int("total", len(clients)))

	if s.cfg.Data.Loading == fedsim.LoadingStatic {
		if err := s.loader.Refresh(); err != nil {
			return err
		}
		for _, c := range clients {
			if err := s.setClientData(c); err != nil {
				return err
			}
		}
	}

	return nil
}

// Run performs rounds until the configured budget is exhausted or the
// target accuracy is reached. Stopping is only checked between rounds.
func (s *service) Run(ctx context.Context) (round.Record, error) {
	rounds := s.cfg.FL.Rounds
	target := s.cfg.FL.TargetAccuracy

	if target > 0 {
		s.logger.Info("training", slog.Int("rounds", rounds), slog.Float64("target_accuracy", target))
	} else {
		s.logger.Info("training", slog.Int("rounds", rounds))
	}

	tOld := 0.0
	for num := 1; rounds <= 0 || num <= rounds; num++ {
		s.logger.Info("starting round",
			slog.String("mode", s.cfg.Sync.Type),
			slog.Int("round", num),
			slog.Int("total_rounds", rounds))

		var (
			accuracy, tNew float64
			err            error
		)
		switch s.cfg.Sync.Type {
		case fedsim.ModeSync:
			accuracy, tNew, err = s.SyncRound(ctx, num, tOld)
		case fedsim.ModeAsync:
			if err := s.snapshots.Prune(ctx, tOld); err != nil {
				s.logger.Debug("snapshot pruning failed", slog.Any("error", err))
			}
			accuracy, tNew, err = s.AsyncRound(ctx, num, tOld, s.cfg.Sync.Interval)
		default:
			return round.Record{}, fmt.Errorf("%w: %q", fedsim.ErrUnknownMode, s.cfg.Sync.Type)
		}
		if err != nil {
			return round.Record{}, fmt.Errorf("round %d: %w", num, err)
		}

		tOld = tNew

		if target > 0 && accuracy >= target {
			s.logger.Info("target accuracy reached",
				slog.Float64("accuracy", accuracy),
				slog.Int("round", num))

			break
		}
	}

	if s.reports != nil {
		if err := s.reports.flush(); err != nil {
			return round.Record{}, err
		}
		s.logger.Info("saved reports", slog.String("path", s.cfg.Paths.Reports))
	}

	return s.Trace(), nil
}

// Trace returns a copy of the accuracy/time record accumulated so far.
func (s *service) Trace() round.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.record.Clone()
}

func (s *service) appendRecord(t, acc float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record.Append(t, acc)
}

func (s *service) selection() ([]*round.Group, error) {
	return s.selector.Select(s.clients, s.cfg.Clients.PerRound)
}

func (s *service) trainConfig() client.TrainConfig {
	return client.TrainConfig{
		Epochs:    s.cfg.FL.Epochs,
		BatchSize: s.cfg.FL.BatchSize,
	}
}

// configuration prepares selected clients for a synchronous pass against
// the current global weights.
func (s *service) configuration(clients []*client.Client) error {
	if s.cfg.Data.Loading == fedsim.LoadingDynamic {
		if err := s.loader.Refresh(); err != nil {
			return err
		}
	}

	for _, c := range clients {
		if s.cfg.Data.Loading == fedsim.LoadingDynamic {
			if err := s.setClientData(c); err != nil {
				return err
			}
		}
		c.Configure(s.trainConfig(), s.weights)
	}

	return nil
}

// asyncConfiguration prepares a group's clients against the snapshot
// that was current at downloadTime, not necessarily the latest model.
// This is where staleness originates.
func (s *service) asyncConfiguration(ctx context.Context, clients []*client.Client, downloadTime float64) error {
	snapshot, err := s.snapshots.Load(ctx, storage.TimeTag(downloadTime))
	if err != nil {
		return fmt.Errorf("snapshot for download time %.3f: %w", downloadTime, err)
	}

	if s.cfg.Data.Loading == fedsim.LoadingDynamic {
		if err := s.loader.Refresh(); err != nil {
			return err
		}
	}

	for _, c := range clients {
		if s.cfg.Data.Loading == fedsim.LoadingDynamic {
			if err := s.setClientData(c); err != nil {
				return err
			}
		}
		c.ConfigureAsync(s.trainConfig(), snapshot, downloadTime)
	}

	return nil
}

func (s *service) setClientData(c *client.Client) error {
	req := data.Request{Pref: c.Pref()}
	if s.cfg.Loader != fedsim.LoaderShard {
		req.Size = s.partitionSize()
	}

	part, err := s.loader.Partition(req)
	if err != nil {
		return fmt.Errorf("partition for client %s: %w", c.Name, err)
	}
	c.SetData(part)

	return nil
}

func (s *service) partitionSize() int {
	if s.cfg.Data.PartitionSize > 0 {
		return s.cfg.Data.PartitionSize
	}

	lo, hi := s.cfg.Data.PartitionMin, s.cfg.Data.PartitionMax
	if hi <= lo {
		return lo
	}

	return lo + s.rng.Intn(hi-lo+1)
}

// trainClients runs the given clients concurrently and waits for all of
// them. A training failure aborts the round; there is no partial-failure
// tolerance.
func (s *service) trainClients(ctx context.Context, clients []*client.Client, registration bool) ([]client.Report, error) {
	reports := make([]client.Report, len(clients))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			report, err := c.Run(ctx, registration)
			if err != nil {
				return fmt.Errorf("client %s: %w", c.Name, err)
			}
			reports[i] = report

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

// evaluate produces the round's accuracy, either as the sample-weighted
// mean of the clients' self-reported accuracy or by testing the updated
// global model on the held-out set.
func (s *service) evaluate(ctx context.Context, reports []client.Report) (float64, error) {
	if s.cfg.Clients.DoTest {
		return accuracyAveraging(reports)
	}

	return s.evaluator.Test(ctx, s.weights, s.loader.Testset(), s.cfg.FL.BatchSize)
}

func accuracyAveraging(reports []client.Report) (float64, error) {
	if len(reports) == 0 {
		return 0, aggregator.ErrNoReports
	}

	total := 0
	for _, report := range reports {
		total += report.NumSamples
	}
	if total == 0 {
		return 0, aggregator.ErrZeroSamples
	}

	accuracy := 0.0
	for _, report := range reports {
		accuracy += report.Accuracy * float64(report.NumSamples) / float64(total)
	}

	return accuracy, nil
}
