// Package main provides the entrypoint for the SafePath API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/safepath/safepath/internal/api"
	"github.com/safepath/safepath/internal/api/handler"
	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/auth"
	"github.com/safepath/safepath/internal/config"
	"github.com/safepath/safepath/internal/contacts"
	"github.com/safepath/safepath/internal/database"
	"github.com/safepath/safepath/internal/detection"
	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/geocoding/google"
	"github.com/safepath/safepath/internal/geocoding/opencage"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/location"
	"github.com/safepath/safepath/internal/provider/resilience"
	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/internal/routing/googlemaps"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/internal/telemetry"
	"github.com/safepath/safepath/internal/weather"
	"github.com/safepath/safepath/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "safepath-api"

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

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting SafePath API")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
	log.Info().Msg("server stopped")
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
	if telemetryCfg.Enabled {
		log.Info().Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		return err
	}

	registry := resilience.NewRegistry()
	var checks []handler.ReadinessCheck

	repos, closeStores, storeChecks, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()
	checks = append(checks, storeChecks...)

	ratings := safety.NewService(safety.ServiceConfig{
		Repository: repos.ratings,
		Logger:     log.With().Str("component", "safety").Logger(),
	})

	notifier, closeNotifier, err := newAlertNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	contactSvc := contacts.NewService(contacts.ServiceConfig{
		Repository: repos.contacts,
		Logger:     log.With().Str("component", "contacts").Logger(),
	})
	locationSvc := location.NewService(location.ServiceConfig{
		Repository: repos.locations,
		Logger:     log.With().Str("component", "location").Logger(),
	})
	incidentSvc := incident.NewService(incident.ServiceConfig{
		Repository: repos.incidents,
		Contacts:   contactSvc,
		Locations:  locationSvc,
		Notifier:   notifier,
		Logger:     log.With().Str("component", "incident").Logger(),
	})

	if cfg.Providers.GoogleMapsKey == "" {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY not set - route planning will fail")
	}
	planner := routing.NewService(routing.ServiceConfig{
		Provider: googlemaps.NewClient(googlemaps.ClientConfig{
			APIKey:   cfg.Providers.GoogleMapsKey,
			Region:   cfg.Geocoding.Region,
			Mode:     cfg.Routing.Mode,
			Timeout:  cfg.Providers.Timeout,
			Registry: registry,
			Logger:   log,
		}),
		Ratings:      ratings,
		Logger:       log.With().Str("component", "routing").Logger(),
		NeutralScore: cfg.Routing.NeutralScore,
		Metrics:      providerMetrics,
	})

	geocoder, cacheCheck, closeCache, err := newGeocoder(cfg, registry, providerMetrics, log)
	if err != nil {
		return err
	}
	defer closeCache()
	if cacheCheck != nil {
		checks = append(checks, *cacheCheck)
	}

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}

	feeds, err := detection.NewFeeds(detection.DefaultFeedCapacity)
	if err != nil {
		return err
	}

	routerCfg := api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		ServiceName:     serviceName,
		Logger:          log,
		Metrics:         metrics,
		RequireTLS:      cfg.App.RequireTLS,
		Verifier:        verifier,
		Planner:         planner,
		Ratings:         ratings,
		Contacts:        contactSvc,
		Incidents:       incidentSvc,
		Locations:       locationSvc,
		Feeds:           feeds,
		Providers:       registry,
		ReadinessChecks: checks,
		Scoring: &handler.ScoringSettings{
			NeutralScore:      planner.NeutralScore(),
			SearchBandDegrees: ratings.SearchBand(),
		},
	}
	if geocoder != nil {
		routerCfg.Geocoder = geocoder
		routerCfg.Quotas = geocoder
	} else {
		log.Warn().Msg("no geocoding provider configured - address lookups disabled")
	}
	if cfg.Providers.OpenWeatherKey != "" {
		routerCfg.Weather = weather.NewService(weather.ServiceConfig{
			Provider: openweathermap.NewClient(openweathermap.ClientConfig{
				APIKey:   cfg.Providers.OpenWeatherKey,
				Registry: registry,
				Logger:   log,
			}),
			Logger: log.With().Str("component", "weather").Logger(),
		})
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// stores are the persistence backends behind the API's domain services.
type stores struct {
	ratings   safety.Repository
	contacts  contacts.Repository
	incidents incident.Repository
	locations location.Repository
}

// schemaOwner is a Postgres repository that creates its own tables.
type schemaOwner interface {
	EnsureSchema(ctx context.Context) error
}

// openStores returns the configured backends, a close func and the readiness
// checks they contribute. Every Postgres repository shares one pool.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stores, func(), []handler.ReadinessCheck, error) {
	if cfg.RatingsStore == config.StoreMemory {
		log.Warn().Msg("using in-memory stores - data is lost on restart")
		return &stores{
			ratings:   safety.NewInMemoryRepository(),
			contacts:  contacts.NewInMemoryRepository(),
			incidents: incident.NewInMemoryRepository(),
			locations: location.NewInMemoryRepository(),
		}, func() {}, nil, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	ratings := safety.NewPostgresRepository(pool)
	contactRepo := contacts.NewPostgresRepository(pool)
	incidentRepo := incident.NewPostgresRepository(pool)
	locationRepo := location.NewPostgresRepository(pool)

	for _, repo := range []schemaOwner{ratings, contactRepo, incidentRepo, locationRepo} {
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
	}

	checks := []handler.ReadinessCheck{{Name: "database", Check: pool.Ping}}
	return &stores{
		ratings:   ratings,
		contacts:  contactRepo,
		incidents: incidentRepo,
		locations: locationRepo,
	}, pool.Close, checks, nil
}

// newAlertNotifier publishes SOS alerts to PUBSUB_ALERT_TOPIC, or logs them
// when no topic is configured.
func newAlertNotifier(ctx context.Context, cfg config.Config, log zerolog.Logger) (incident.Notifier, func(), error) {
	if cfg.PubSub.AlertTopic == "" {
		log.Warn().Msg("PUBSUB_ALERT_TOPIC not set - SOS alerts are only logged")
		return incident.NewLogNotifier(log.With().Str("component", "alerts").Logger()), func() {}, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	notifier := incident.NewPubSubNotifier(client, cfg.PubSub.AlertTopic)
	log.Info().Str("topic", cfg.PubSub.AlertTopic).Msg("SOS alerts published to pubsub")

	return notifier, func() {
		notifier.Stop()
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}, nil
}

// newGeocoder builds the provider chain: Google first, OpenCage as fallback.
// It returns nil when neither provider has an API key.
func newGeocoder(cfg config.Config, registry *resilience.Registry, metrics *telemetry.ProviderMetrics, log zerolog.Logger) (*geocoding.Service, *handler.ReadinessCheck, func(), error) {
	var providers []geocoding.Provider
	if cfg.Providers.GoogleMapsKey != "" {
		providers = append(providers, geocoding.Provider{
			Geocoder: google.NewClient(google.ClientConfig{
				APIKey:   cfg.Providers.GoogleMapsKey,
				Region:   cfg.Geocoding.Region,
				Timeout:  cfg.Providers.Timeout,
				Registry: registry,
				Logger:   log,
			}),
			Quota: geocoding.NewQuotaCounter(google.ProviderName, cfg.Geocoding.GoogleDailyLimit, nil),
		})
	}
	if cfg.Providers.OpenCageKey != "" {
		providers = append(providers, geocoding.Provider{
			Geocoder: opencage.NewClient(opencage.ClientConfig{
				APIKey:      cfg.Providers.OpenCageKey,
				CountryCode: cfg.Geocoding.Region,
				Timeout:     cfg.Providers.Timeout,
				Registry:    registry,
				Logger:      log,
			}),
			Quota: geocoding.NewQuotaCounter(opencage.ProviderName, cfg.Geocoding.OpenCageDailyLimit, nil),
		})
	}
	if len(providers) == 0 {
		return nil, nil, func() {}, nil
	}

	var (
		cache     geocoding.Cache
		check     *handler.ReadinessCheck
		closeFunc = func() {}
	)
	if cfg.ValkeyAddr != "" {
		vc, err := geocoding.NewValkeyCache(cfg.ValkeyAddr, cfg.Geocoding.CacheTTL, log)
		if err != nil {
			return nil, nil, nil, err
		}
		cache = vc
		check = &handler.ReadinessCheck{Name: "valkey", Check: vc.Ping}
		closeFunc = vc.Close
		log.Info().Str("addr", cfg.ValkeyAddr).Msg("shared geocode cache enabled")
	} else {
		lru, err := geocoding.NewLRUCache(cfg.Geocoding.CacheSize)
		if err != nil {
			return nil, nil, nil, err
		}
		cache = lru
	}

	svc, err := geocoding.NewService(geocoding.ServiceConfig{
		Providers: providers,
		Cache:     cache,
		Logger:    log.With().Str("component", "geocoding").Logger(),
		Metrics:   metrics,
	})
	if err != nil {
		closeFunc()
		return nil, nil, nil, err
	}
	return svc, check, closeFunc, nil
}

func newVerifier(cfg config.Config, log zerolog.Logger) (*auth.Verifier, error) {
	key := cfg.Auth.SigningKey
	if key == "" {
		key = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	return auth.NewVerifier(auth.VerifierConfig{
		SigningKey: key,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})
}
