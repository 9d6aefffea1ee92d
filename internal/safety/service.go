package safety

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/validation"
)

// Defaults for rating queries.
const (
	// DefaultSearchBand is the latitude half-width (degrees) of the candidate pre-filter.
	DefaultSearchBand = 0.01

	// MaxRadiusMeters is the largest zone Submit accepts. It must match the
	// lte bound on SubmitInput.RadiusMeters.
	MaxRadiusMeters = 5000

	// metersPerDegreeLat is the length of one degree of latitude.
	metersPerDegreeLat = 111_320.0

	// DefaultListLimit and MaxListLimit bound safety map queries.
	DefaultListLimit = 200
	MaxListLimit     = 1000
)

const validationSubject = "safety rating"

// ServiceConfig holds configuration for the safety rating service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	SearchBand float64
	Now        func() time.Time
}

// Service provides rating lookups for the route scorer and the community report flow.
type Service struct {
	repo       Repository
	logger     zerolog.Logger
	searchBand float64
	now        func() time.Time
	validate   *validation.Validator
}

// NewService creates a new safety rating service.
// The search band is widened to cover MaxRadiusMeters so that every zone
// containing a point is among the candidates.
func NewService(cfg ServiceConfig) *Service {
	if cfg.SearchBand <= 0 {
		cfg.SearchBand = DefaultSearchBand
	}
	cfg.SearchBand = math.Max(cfg.SearchBand, MinSearchBand())
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		searchBand: cfg.SearchBand,
		now:        cfg.Now,
		validate:   validation.New(),
	}
}

// MinSearchBand is the latitude half-width (degrees) spanned by MaxRadiusMeters.
func MinSearchBand() float64 {
	return MaxRadiusMeters / metersPerDegreeLat
}

// SearchBand returns the latitude half-width used by RatingsNear.
func (s *Service) SearchBand() float64 {
	return s.searchBand
}

// RatingsNear returns every rating whose zone contains p.
// Candidates are pre-filtered by latitude band, then checked by haversine distance.
func (s *Service) RatingsNear(ctx context.Context, p geo.Point) ([]*Rating, error) {
	minLat, maxLat := geo.LatBand(p.Lat, s.searchBand)

	candidates, err := s.repo.ListInLatRange(ctx, minLat, maxLat)
	if err != nil {
		return nil, fmt.Errorf("list ratings in band: %w", err)
	}

	var matches []*Rating
	for _, r := range candidates {
		if r.Contains(p) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

// Submit validates a community report and stores it as a rating.
// Anonymous reports are stored without the reporter's user ID.
func (s *Service) Submit(ctx context.Context, userID string, input *SubmitInput) (*Rating, error) {
	if input == nil {
		return nil, validation.Fail(validationSubject, "body", "is required")
	}
	if input.Category == "" {
		input.Category = CategoryUnsafeArea
	}

	if err := s.validate.Check(validationSubject, input); err != nil {
		return nil, err
	}

	rating := &Rating{
		ID:           "rat_" + uuid.New().String()[:22],
		Center:       geo.Point{Lat: input.Lat, Lng: input.Lng},
		RadiusMeters: input.RadiusMeters,
		SafetyScore:  input.SafetyScore,
		Category:     input.Category,
		Anonymous:    input.Anonymous,
		CreatedAt:    s.now().UTC(),
	}
	if input.Description != "" {
		desc := input.Description
		rating.Description = &desc
	}
	if !input.Anonymous && userID != "" {
		uid := userID
		rating.ReporterID = &uid
	}

	if err := s.repo.Create(ctx, rating); err != nil {
		return nil, fmt.Errorf("store rating: %w", err)
	}

	s.logger.Info().
		Str("rating_id", rating.ID).
		Str("category", string(rating.Category)).
		Float64("safety_score", rating.SafetyScore).
		Bool("anonymous", rating.Anonymous).
		Msg("safety rating submitted")

	return rating, nil
}

// ListInBox returns ratings inside box for the safety map.
// A non-positive limit uses DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Service) ListInBox(ctx context.Context, box geo.Box, limit int) ([]*Rating, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	ratings, err := s.repo.ListInBox(ctx, box, limit)
	if err != nil {
		return nil, fmt.Errorf("list ratings in box: %w", err)
	}
	return ratings, nil
}

// Get retrieves a rating by ID.
func (s *Service) Get(ctx context.Context, id string) (*Rating, error) {
	return s.repo.Get(ctx, id)
}
