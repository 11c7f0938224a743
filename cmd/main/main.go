package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/sync/errgroup"

	"github.com/UnknownOlympus/athena/internal/config"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/repository"
	"github.com/UnknownOlympus/athena/internal/server"
	"github.com/UnknownOlympus/athena/internal/services/employees"
)

const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	store, err := repository.Open(cfg, logger, appMetrics)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()

	deps := make(map[string]server.Pinger, len(store.Health))
	for name, pinger := range store.Health {
		deps[name] = pinger
	}

	opts := server.Options{
		Env:            cfg.Env,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		BodyLimit:      cfg.HTTP.BodyLimit,
		CORSOrigin:     cfg.HTTP.CORSOrigin,
		StoreURL:       cfg.Store.URL,
	}
	if cfg.RateLimit.Enabled {
		if opts.Limiter, err = server.NewLimiter(cfg.RateLimit.Rate, memory.NewStore()); err != nil {
			log.Fatalf("Failed to create rate limiter: %v", err)
		}
	}

	staff := employees.NewStaff(logger, store.Employees, appMetrics)
	api := server.NewAPI(logger, staff, appMetrics, opts)

	apiServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd // slowloris guard
	}
	monitoringServer := server.NewMonitoringServer(reg, server.NewHealthChecker(deps, logger), cfg.Monitoring.Port)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(groupCtx, logger, apiServer, cfg.HTTP.ShutdownTimeout)
	})
	group.Go(func() error {
		return server.Serve(groupCtx, logger, monitoringServer, cfg.HTTP.ShutdownTimeout)
	})

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"port", cfg.HTTP.Port,
		"monitoring_port", cfg.Monitoring.Port,
		"store", cfg.Store.Driver,
		"env", cfg.Env,
	)

	if err = group.Wait(); err != nil {
		logger.ErrorContext(ctx, "Application stopped with error", "error", err)
		stop()
		store.Close()
		os.Exit(1) //nolint:gocritic // deferred cleanup already run above
	}

	logger.InfoContext(ctx, "Application stopped gracefully...")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: false,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{Key: "", Value: slog.Value{}}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{Key: "", Value: slog.Value{}}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified, or was invalid. Logging will be minimal, by default." +
				" Please specify the value of `env`: local, development, production")
	}

	return log
}
