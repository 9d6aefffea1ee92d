// Package geocoding resolves free-text addresses to coordinates through an ordered
// list of quota-guarded providers with a bounded result cache.
package geocoding

import (
	"context"
	"errors"
	"strings"

	"github.com/safepath/safepath/internal/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrInvalidAddress indicates an empty or whitespace-only address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoResults indicates the provider found no match for the address.
	ErrNoResults = errors.New("no geocoding results")
	// ErrQuotaExceeded indicates the provider's daily request quota is exhausted.
	ErrQuotaExceeded = errors.New("daily geocoding quota exceeded")
	// ErrProviderUnavailable indicates the provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrMalformedResponse indicates the provider payload did not match the expected shape.
	ErrMalformedResponse = errors.New("malformed geocoding provider response")
	// ErrAllProvidersFailed indicates every configured provider failed.
	ErrAllProvidersFailed = errors.New("all geocoding providers failed")
)

// Geocoder resolves an address with a single upstream provider.
type Geocoder interface {
	// Geocode resolves address to a point. The address is already trimmed and non-empty.
	Geocode(ctx context.Context, address string) (*Result, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Result is a resolved address.
type Result struct {
	Point            geo.Point `json:"point"`
	Confidence       *int      `json:"confidence,omitempty"`
	FormattedAddress *string   `json:"formattedAddress,omitempty"`
	Provider         string    `json:"provider"`
}

// Error provides detailed error information from a geocoding provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ChainError aggregates the failure of every provider in order.
// errors.Is(err, ErrAllProvidersFailed) holds, and each provider failure is
// reachable through errors.Is / errors.As.
type ChainError struct {
	Failures []error
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return ErrAllProvidersFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ChainError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures)+1)
	out = append(out, ErrAllProvidersFailed)
	out = append(out, e.Failures...)
	return out
}

// OnlyQuotaExceeded reports whether every provider failed on its quota.
func (e *ChainError) OnlyQuotaExceeded() bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if !errors.Is(f, ErrQuotaExceeded) {
			return false
		}
	}
	return true
}
