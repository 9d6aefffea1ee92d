// Package resilience guards SafePath's upstream calls: Google Maps directions,
// Google and OpenCage geocoding, and OpenWeatherMap. Each provider gets its own
// Client with a timeout, retries with backoff and a circuit breaker, and
// reports its health to a Registry that backs /v1/ops/status.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker defaults shared by every provider.
const (
	// tripMinRequests is how many calls a window needs before the breaker may open.
	tripMinRequests = 5
	// tripFailureRatio is the share of failed calls that opens the breaker.
	tripFailureRatio = 0.5
	// defaultOpenPeriod is how long an open breaker rejects calls.
	defaultOpenPeriod = 60 * time.Second
	// defaultHalfOpenRequests is how many trial calls a half-open breaker admits.
	defaultHalfOpenRequests = 1
)

// CircuitBreakerConfig tunes one provider's breaker. Zero fields take the defaults.
type CircuitBreakerConfig struct {
	// Name is the provider name, e.g. "googlemaps" or "geocoding-opencage".
	// It is also the Registry key.
	Name string

	// MaxRequests is how many calls a half-open breaker lets through.
	MaxRequests uint32

	// Interval resets the counts while closed. Zero keeps them until the next trip.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// ReadyToTrip decides whether the counts open the breaker.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange observes transitions, e.g. to log a provider going down.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker every provider client starts from.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: defaultHalfOpenRequests,
		Timeout:     defaultOpenPeriod,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the breaker once at least five calls were made and
// half or more of them failed.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < tripMinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= tripFailureRatio
}

// ProviderFault reports whether err counts against the provider. A request
// abandoned by its caller says nothing about the provider's health.
func ProviderFault(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// NewCircuitBreaker creates a breaker from cfg, filling unset fields with defaults.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = defaultHalfOpenRequests
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOpenPeriod
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
		IsSuccessful: func(err error) bool {
			return !ProviderFault(err)
		},
	})
}
