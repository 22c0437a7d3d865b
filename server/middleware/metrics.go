package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/absmach/fedsim/round"
	"github.com/absmach/fedsim/server"
)

var _ server.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter  metrics.Counter
	latency  metrics.Histogram
	accuracy metrics.Gauge
	svc      server.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, accuracy metrics.Gauge, svc server.Service) server.Service {
	return &metricsMiddleware{
		counter:  counter,
		latency:  latency,
		accuracy: accuracy,
		svc:      svc,
	}
}

func (mm *metricsMiddleware) Boot(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "boot").Add(1)
		mm.latency.With("method", "boot").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Boot(ctx)
}

func (mm *metricsMiddleware) Run(ctx context.Context) (round.Record, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run").Add(1)
		mm.latency.With("method", "run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Run(ctx)
}

func (mm *metricsMiddleware) SyncRound(ctx context.Context, num int, tOld float64) (float64, float64, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "sync-round").Add(1)
		mm.latency.With("method", "sync-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	accuracy, tNew, err := mm.svc.SyncRound(ctx, num, tOld)
	if err == nil {
		mm.accuracy.Set(accuracy)
	}

	return accuracy, tNew, err
}

func (mm *metricsMiddleware) AsyncRound(ctx context.Context, num int, tOld, tAsync float64) (float64, float64, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "async-round").Add(1)
		mm.latency.With("method", "async-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	accuracy, tNew, err := mm.svc.AsyncRound(ctx, num, tOld, tAsync)
	if err == nil {
		mm.accuracy.Set(accuracy)
	}

	return accuracy, tNew, err
}

func (mm *metricsMiddleware) Trace() round.Record {
	return mm.svc.Trace()
}
