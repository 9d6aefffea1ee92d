// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/safepath/safepath/internal/database"
	"github.com/safepath/safepath/internal/telemetry"
)

// Ratings store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the configuration shared by the API server and the worker.
type Config struct {
	App       App
	Auth      Auth
	Providers Providers
	Geocoding Geocoding
	Routing   Routing
	PubSub    PubSub
	Database  database.Config
	Telemetry telemetry.Config

	// RatingsStore selects the backend for ratings and user emergency data
	// (contacts, incidents, locations): postgres or memory.
	RatingsStore string `env:"RATINGS_STORE" envDefault:"postgres"`

	// ValkeyAddr enables the shared geocode cache when set.
	ValkeyAddr string `env:"VALKEY_ADDR"`
}

type App struct {
	Port       string `env:"APP_PORT" envDefault:"8080"`
	Env        string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	RequireTLS bool   `env:"REQUIRE_TLS" envDefault:"false"`
}

type Auth struct {
	SigningKey string `env:"JWT_SIGNING_KEY" json:"-"`
	Issuer     string `env:"JWT_ISSUER" envDefault:"https://auth.safepath.app"`
	Audience   string `env:"JWT_AUDIENCE" envDefault:"safepath-api"`
}

// Providers holds upstream API keys. An empty key disables that provider.
type Providers struct {
	GoogleMapsKey  string        `env:"GOOGLE_MAPS_API_KEY" json:"-"`
	OpenCageKey    string        `env:"OPENCAGE_API_KEY" json:"-"`
	OpenWeatherKey string        `env:"OPENWEATHER_API_KEY" json:"-"`
	Timeout        time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
}

type Geocoding struct {
	Region             string        `env:"GEOCODE_REGION" envDefault:"in"`
	CacheSize          int           `env:"GEOCODE_CACHE_SIZE" envDefault:"1024"`
	CacheTTL           time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"168h"`
	OpenCageDailyLimit int           `env:"OPENCAGE_DAILY_LIMIT" envDefault:"2400"`
	GoogleDailyLimit   int           `env:"GOOGLE_DAILY_LIMIT" envDefault:"0"`
}

type Routing struct {
	// Mode is the directions travel mode. Empty leaves the provider default.
	Mode         string  `env:"ROUTING_MODE"`
	NeutralScore float64 `env:"ROUTING_NEUTRAL_SCORE" envDefault:"50"`
}

type PubSub struct {
	ProjectID    string `env:"PUBSUB_PROJECT_ID"`
	Subscription string `env:"PUBSUB_SUBSCRIPTION" envDefault:"safety-reports-worker"`

	// AlertTopic receives SOS alerts for delivery to emergency contacts.
	// Empty logs alerts instead.
	AlertTopic string `env:"PUBSUB_ALERT_TOPIC"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	config.RatingsStore = strings.ToLower(strings.TrimSpace(config.RatingsStore))
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.RatingsStore {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("RATINGS_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.RatingsStore))
	}

	if c.Routing.NeutralScore <= 0 || c.Routing.NeutralScore > 100 {
		errs = append(errs, fmt.Errorf("ROUTING_NEUTRAL_SCORE must be in (0, 100], got %v", c.Routing.NeutralScore))
	}
	if c.Geocoding.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("GEOCODE_CACHE_SIZE must be positive, got %d", c.Geocoding.CacheSize))
	}
	if c.Geocoding.OpenCageDailyLimit < 0 || c.Geocoding.GoogleDailyLimit < 0 {
		errs = append(errs, errors.New("geocoding daily limits must not be negative"))
	}
	if c.PubSub.AlertTopic != "" && c.PubSub.ProjectID == "" {
		errs = append(errs, errors.New("PUBSUB_ALERT_TOPIC requires PUBSUB_PROJECT_ID"))
	}
	if c.IsProduction() && c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
