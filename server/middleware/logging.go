package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedsim/round"
	"github.com/absmach/fedsim/server"
)

var _ server.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    server.Service
}

func Logging(logger *slog.Logger, svc server.Service) server.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Boot(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Boot failed", args...)

			return
		}
		lm.logger.Info("Boot completed successfully", args...)
	}(time.Now())

	return lm.svc.Boot(ctx)
}

func (lm *loggingMiddleware) Run(ctx context.Context) (record round.Record, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("trace_points", record.Len()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run failed", args...)

			return
		}
		lm.logger.Info("Run completed successfully", args...)
	}(time.Now())

	return lm.svc.Run(ctx)
}

func (lm *loggingMiddleware) SyncRound(ctx context.Context, num int, tOld float64) (accuracy, tNew float64, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Int("num", num),
				slog.Float64("t_old", tOld),
				slog.Float64("t_new", tNew),
				slog.Float64("accuracy", accuracy),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Sync round failed", args...)

			return
		}
		lm.logger.Info("Sync round completed successfully", args...)
	}(time.Now())

	return lm.svc.SyncRound(ctx, num, tOld)
}

func (lm *loggingMiddleware) AsyncRound(ctx context.Context, num int, tOld, tAsync float64) (accuracy, tNew float64, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Int("num", num),
				slog.Float64("t_old", tOld),
				slog.Float64("window", tAsync),
				slog.Float64("t_new", tNew),
				slog.Float64("accuracy", accuracy),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Async round failed", args...)

			return
		}
		lm.logger.Info("Async round completed successfully", args...)
	}(time.Now())

	return lm.svc.AsyncRound(ctx, num, tOld, tAsync)
}

func (lm *loggingMiddleware) Trace() round.Record {
	return lm.svc.Trace()
}
