package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/absmach/fedsim/round"
	"github.com/absmach/fedsim/server"
)

var _ server.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    server.Service
}

func Tracing(tracer trace.Tracer, svc server.Service) server.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Boot(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "boot")
	defer span.End()

	return tm.svc.Boot(ctx)
}

func (tm *tracing) Run(ctx context.Context) (round.Record, error) {
	ctx, span := tm.tracer.Start(ctx, "run")
	defer span.End()

	return tm.svc.Run(ctx)
}

func (tm *tracing) SyncRound(ctx context.Context, num int, tOld float64) (float64, float64, error) {
	ctx, span := tm.tracer.Start(ctx, "sync-round", trace.WithAttributes(
		attribute.Int("round", num),
		attribute.Float64("t_old", tOld),
	))
	defer span.End()

	return tm.svc.SyncRound(ctx, num, tOld)
}

func (tm *tracing) AsyncRound(ctx context.Context, num int, tOld, tAsync float64) (float64, float64, error) {
	ctx, span := tm.tracer.Start(ctx, "async-round", trace.WithAttributes(
		attribute.Int("round", num),
		attribute.Float64("t_old", tOld),
		attribute.Float64("window", tAsync),
	))
	defer span.End()

	return tm.svc.AsyncRound(ctx, num, tOld, tAsync)
}

func (tm *tracing) Trace() round.Record {
	return tm.svc.Trace()
}
