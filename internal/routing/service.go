package routing

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/telemetry"
)

// DefaultNeutralScore is assigned to routes with no rated waypoints.
const DefaultNeutralScore = 50.0

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions provider.
	Provider Provider

	// Ratings looks up community ratings per waypoint.
	Ratings RatingsSource

	// Logger for service operations.
	Logger zerolog.Logger

	// NeutralScore is the score of a route with no rated waypoints (default: 50).
	// Values outside (0, 100] fall back to the default.
	NeutralScore float64

	// Metrics records directions calls (optional).
	Metrics *telemetry.ProviderMetrics
}

// Service plans routes and ranks them by safety.
// Routes are fetched fresh for every request and never cached.
type Service struct {
	provider     Provider
	ratings      RatingsSource
	logger       zerolog.Logger
	neutralScore float64
	metrics      *telemetry.ProviderMetrics
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	neutral := cfg.NeutralScore
	if neutral <= 0 || neutral > 100 {
		neutral = DefaultNeutralScore
	}

	return &Service{
		provider:     cfg.Provider,
		ratings:      cfg.Ratings,
		logger:       cfg.Logger,
		neutralScore: neutral,
		metrics:      cfg.Metrics,
	}
}

// PlanRoute requests route alternatives between origin and destination and returns
// them scored and sorted by descending safety score. Ties keep provider order.
// A provider failure or an empty alternative list fails the whole call.
func (s *Service) PlanRoute(ctx context.Context, origin, destination geo.Point) ([]ScoredRoute, error) {
	if err := origin.Validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      err,
		}
	}
	if err := destination.Validate(); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      err,
		}
	}

	s.logger.Debug().
		Float64("origin_lat", origin.Lat).
		Float64("origin_lng", origin.Lng).
		Float64("dest_lat", destination.Lat).
		Float64("dest_lng", destination.Lng).
		Str("provider", s.provider.Name()).
		Msg("fetching route alternatives")

	start := time.Now()
	resp, err := s.provider.GetDirections(ctx, DirectionsRequest{
		Origin:       origin,
		Destination:  destination,
		Alternatives: true,
	})
	s.metrics.RecordRequest(ctx, s.provider.Name(), "directions", time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch directions")
		return nil, err
	}

	if len(resp.Routes) == 0 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "NO_ROUTE",
			Message:  "provider returned no route alternatives",
			Err:      ErrNoRouteFound,
		}
	}

	scored := make([]ScoredRoute, 0, len(resp.Routes))
	for i := range resp.Routes {
		sr, err := s.ScoreRoute(ctx, resp.Routes[i])
		if err != nil {
			return nil, err
		}
		scored = append(scored, sr)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SafetyScore > scored[j].SafetyScore
	})

	s.logger.Info().
		Int("route_count", len(scored)).
		Float64("best_score", scored[0].SafetyScore).
		Str("best_level", string(scored[0].SafetyLevel)).
		Msg("routes scored")

	return scored, nil
}

// ScoreRoute computes the safety score of a single route.
// Each waypoint is scored by the mean of the ratings containing it, and the route
// by the mean over rated waypoints. Rating lookups run sequentially in route order.
// A lookup failure for one waypoint is logged and the waypoint counts as unrated.
// Only context cancellation aborts scoring.
func (s *Service) ScoreRoute(ctx context.Context, route Route) (ScoredRoute, error) {
	waypoints := route.Waypoints()

	var (
		total float64
		rated int
	)
	for i, wp := range waypoints {
		if err := ctx.Err(); err != nil {
			return ScoredRoute{}, err
		}

		avg, ok, err := s.waypointScore(ctx, wp)
		if err != nil {
			s.logger.Warn().Err(err).
				Int("waypoint_index", i).
				Float64("lat", wp.Lat).
				Float64("lng", wp.Lng).
				Msg("rating lookup failed, treating waypoint as unrated")
			continue
		}
		if !ok {
			continue
		}

		total += avg
		rated++
	}

	score := s.neutralScore
	if rated > 0 {
		score = total / float64(rated)
	}

	// Providers may omit the overview; the step starts still trace the route.
	if route.OverviewPolyline == "" && len(waypoints) > 1 {
		route.OverviewPolyline = geo.EncodePolyline(waypoints)
	}

	return ScoredRoute{
		Route:          route,
		SafetyScore:    score,
		SafetyLevel:    LevelForScore(score),
		WaypointCount:  len(waypoints),
		RatedWaypoints: rated,
	}, nil
}

// waypointScore returns the mean score of ratings whose zone contains p.
// ok is false when no rating matches.
func (s *Service) waypointScore(ctx context.Context, p geo.Point) (avg float64, ok bool, err error) {
	ratings, err := s.ratings.RatingsNear(ctx, p)
	if err != nil {
		return 0, false, err
	}

	var (
		sum   float64
		count int
	)
	for _, r := range ratings {
		if !r.Contains(p) {
			continue
		}
		sum += r.SafetyScore
		count++
	}

	if count == 0 {
		return 0, false, nil
	}
	return sum / float64(count), true, nil
}

// NeutralScore returns the score assigned to routes with no rated waypoints.
func (s *Service) NeutralScore() float64 {
	return s.neutralScore
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
