// Package main provides the entrypoint for the SafePath report worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/safepath/safepath/internal/config"
	"github.com/safepath/safepath/internal/database"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/internal/telemetry"
	"github.com/safepath/safepath/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "safepath-worker"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil {
		log = log.Level(level)
	}
	if cfg.PubSub.ProjectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required")
	}

	log.Info().Str("build_time", BuildTime).Msg("starting SafePath worker")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("worker stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := cfg.Telemetry
	telemetryCfg.ServiceName = serviceName
	telemetryCfg.ServiceVersion = Version
	telemetryCfg.Environment = cfg.App.Env

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	var repo safety.Repository
	if cfg.RatingsStore == config.StoreMemory {
		log.Warn().Msg("using in-memory ratings store - reports are not shared with the API")
		repo = safety.NewInMemoryRepository()
	} else {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		pgRepo := safety.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		repo = pgRepo
	}

	processor := worker.NewReportProcessor(worker.ProcessorConfig{
		Store: safety.NewService(safety.ServiceConfig{
			Repository: repo,
			Logger:     log.With().Str("component", "safety").Logger(),
		}),
		Logger: log.With().Str("component", "reports").Logger(),
	})

	subscriber, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: cfg.PubSub.Subscription,
		Processor:        processor,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      worker.HealthHandler(Version, processor),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return subscriber.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down worker")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
