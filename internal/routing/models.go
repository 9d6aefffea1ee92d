// Package routing plans routes between two points and ranks the provider's
// alternatives by community safety score.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/safety"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the directions provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates the provider returned no alternatives between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider's API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrMalformedResponse indicates the provider payload did not match the expected shape.
	ErrMalformedResponse = errors.New("malformed routing provider response")
	// ErrInvalidCoordinates indicates the provided coordinates are out of range.
	ErrInvalidCoordinates = geo.ErrInvalidCoordinates
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetDirections retrieves route alternatives between two points.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RatingsSource returns the safety ratings whose zone contains a point.
// safety.Service is the production implementation.
type RatingsSource interface {
	RatingsNear(ctx context.Context, p geo.Point) ([]*safety.Rating, error)
}

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Origin       geo.Point
	Destination  geo.Point
	Alternatives bool
}

// DirectionsResponse is the response containing route alternatives in provider order.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single route alternative as returned by the provider.
type Route struct {
	Summary          string
	DistanceMeters   int
	DistanceText     string
	DurationSeconds  int
	DurationText     string
	OverviewPolyline string // Encoded polyline (precision 5)
	Bounds           *geo.Box
	Legs             []Leg
}

// Leg is one origin-to-destination leg of a route.
type Leg struct {
	StartAddress string
	EndAddress   string
	Steps        []Step
}

// Step is a single navigation step.
type Step struct {
	StartLocation   geo.Point
	EndLocation     geo.Point
	Instruction     string
	DistanceMeters  int
	DurationSeconds int
}

// Waypoints flattens the start location of every step of every leg, in provider order.
// Points are neither deduplicated nor resampled, so routes with many short steps
// contribute more samples than routes with few long ones.
func (r *Route) Waypoints() []geo.Point {
	var points []geo.Point
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			points = append(points, step.StartLocation)
		}
	}
	return points
}

// SafetyLevel is the ordinal bucket of a safety score.
type SafetyLevel string

const (
	LevelVerySafe   SafetyLevel = "very_safe"
	LevelSafe       SafetyLevel = "safe"
	LevelModerate   SafetyLevel = "moderate"
	LevelUnsafe     SafetyLevel = "unsafe"
	LevelVeryUnsafe SafetyLevel = "very_unsafe"
)

// LevelForScore maps a 0-100 score to its level. Bounds are inclusive at the lower end.
func LevelForScore(score float64) SafetyLevel {
	switch {
	case score >= 80:
		return LevelVerySafe
	case score >= 60:
		return LevelSafe
	case score >= 40:
		return LevelModerate
	case score >= 20:
		return LevelUnsafe
	default:
		return LevelVeryUnsafe
	}
}

// ScoredRoute is a route annotated with its safety score.
type ScoredRoute struct {
	Route
	SafetyScore    float64
	SafetyLevel    SafetyLevel
	WaypointCount  int
	RatedWaypoints int // waypoints that matched at least one rating
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
