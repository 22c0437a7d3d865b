package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedsim"
	"github.com/absmach/fedsim/api"
	"github.com/absmach/fedsim/cli"
	"github.com/absmach/fedsim/pkg/model"
	"github.com/absmach/fedsim/pkg/selector"
	"github.com/absmach/fedsim/pkg/storage"
	"github.com/absmach/fedsim/server"
	"github.com/absmach/fedsim/server/middleware"
)

const (
	svcName = "fedsim"
	pathEnv = ".env"
)

type envConfig struct {
	LogLevel   string  `env:"FEDSIM_LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `env:"FEDSIM_INSTANCE_ID"`
	HTTPAddr   string  `env:"FEDSIM_HTTP_ADDR"   envDefault:":7070"`
	OTELURL    url.URL `env:"FEDSIM_OTEL_URL"`
	TraceRatio float64 `env:"FEDSIM_TRACE_RATIO" envDefault:"0"`
	Storage    storage.Config
}

func main() {
	configPath := "config.toml"

	rootCmd := &cobra.Command{
		Use:   "fedsim [run|trace]",
		Short: "Federated learning round simulator",
		Long:  `Simulate synchronous and asynchronous federated learning rounds over a pool of in-process clients.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long:  `Run a federated learning simulation from a TOML experiment configuration.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd.Context(), configPath); err != nil {
				cmd.PrintErrf("simulation failed: %s\n", err.Error())
				os.Exit(1)
			}
		},
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to the experiment TOML file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cli.NewTraceCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	expCfg, err := fedsim.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTELURL.String()))
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %w", err)
		}
		sdktp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TraceRatio)),
		)
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	snapshots, err := storage.NewSnapshots(cfg.Storage, logger)
	if err != nil {
		return err
	}

	trainer := model.NewLinear(expCfg.Model.Dim, expCfg.Model.Labels, expCfg.Model.LearningRate)
	sel := selector.NewRandom(rand.New(rand.NewSource(expCfg.Seed)))

	svc, err := server.NewService(expCfg, sel, snapshots, trainer, trainer, logger)
	if err != nil {
		return err
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: svcName,
		Subsystem: "server",
		Name:      "request_count",
		Help:      "Number of server operations.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: svcName,
		Subsystem: "server",
		Name:      "request_latency_seconds",
		Help:      "Latency of server operations.",
	}, []string{"method"})
	accuracy := kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: svcName,
		Subsystem: "server",
		Name:      "global_accuracy",
		Help:      "Accuracy of the global model after the latest round.",
	}, []string{})
	svc = middleware.Metrics(counter, latency, accuracy, svc)

	hs := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.MakeHandler(svc, logger, svcName, cfg.InstanceID),
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		return hs.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer cancel()

		if err := svc.Boot(ctx); err != nil {
			return err
		}
		record, err := svc.Run(ctx)
		if err != nil {
			return err
		}

		if expCfg.Paths.Trace != "" {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal trace: %w", err)
			}
			if err := os.WriteFile(expCfg.Paths.Trace, data, 0o644); err != nil {
				return fmt.Errorf("failed to write trace: %w", err)
			}
			logger.Info("saved trace", slog.String("path", expCfg.Paths.Trace))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s exited with error: %s", svcName, err))

		return err
	}

	return nil
}
