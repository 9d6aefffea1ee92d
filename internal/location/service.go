package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/validation"
)

// ServiceConfig holds configuration for the location service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service records user positions and evaluates them against geofences.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	now      func() time.Time
	validate *validation.Validator
}

// NewService creates a new location service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		now:      cfg.Now,
		validate: validation.New(),
	}
}

// Record stores p as the user's last known position and reports which active
// geofences the user entered or left since the previous position.
func (s *Service) Record(ctx context.Context, userID string, p geo.Point) (*Update, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	prev, err := s.repo.GetLastKnown(ctx, userID)
	if err != nil && !errors.Is(err, ErrLocationNotFound) {
		return nil, fmt.Errorf("load last known location: %w", err)
	}

	fences, err := s.repo.ListGeofences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}

	loc := &LastKnown{UserID: userID, Point: p, RecordedAt: s.now().UTC()}
	if err := s.repo.SaveLastKnown(ctx, loc); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}

	update := &Update{Location: loc}
	for _, g := range fences {
		if !g.Active {
			continue
		}
		inside := g.Contains(p)
		wasInside := prev != nil && g.Contains(prev.Point)

		if inside {
			update.Inside = append(update.Inside, g)
		}
		switch {
		case inside && !wasInside:
			update.Entered = append(update.Entered, g)
		case !inside && wasInside:
			update.Exited = append(update.Exited, g)
		}
	}

	for _, g := range update.Entered {
		s.logger.Info().Str("user_id", userID).Str("geofence_id", g.ID).Msg("geofence entered")
	}
	for _, g := range update.Exited {
		s.logger.Info().Str("user_id", userID).Str("geofence_id", g.ID).Msg("geofence exited")
	}
	return update, nil
}

// LastKnown returns the user's most recent position.
func (s *Service) LastKnown(ctx context.Context, userID string) (*LastKnown, error) {
	return s.repo.GetLastKnown(ctx, userID)
}

// ListGeofences returns a user's geofences, oldest first.
func (s *Service) ListGeofences(ctx context.Context, userID string) ([]*Geofence, error) {
	return s.repo.ListGeofences(ctx, userID)
}

// CreateGeofence adds an active geofence. A user may hold at most MaxGeofencesPerUser.
func (s *Service) CreateGeofence(ctx context.Context, userID string, input *GeofenceInput) (*Geofence, error) {
	if input == nil {
		return nil, validation.Fail("geofence", "body", "is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Check("geofence", input); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListGeofences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}
	if len(existing) >= MaxGeofencesPerUser {
		return nil, ErrGeofenceLimitReached
	}

	radius := input.RadiusMeters
	if radius == 0 {
		radius = DefaultGeofenceRadius
	}

	now := s.now().UTC()
	g := &Geofence{
		ID:           "gfn_" + uuid.New().String()[:22],
		UserID:       userID,
		Name:         input.Name,
		Center:       geo.Point{Lat: input.Lat, Lng: input.Lng},
		RadiusMeters: radius,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateGeofence(ctx, g); err != nil {
		return nil, fmt.Errorf("store geofence: %w", err)
	}

	s.logger.Info().
		Str("geofence_id", g.ID).
		Str("user_id", userID).
		Float64("radius_meters", g.RadiusMeters).
		Msg("geofence created")
	return g, nil
}

// UpdateGeofence applies the set fields of patch.
func (s *Service) UpdateGeofence(ctx context.Context, userID, geofenceID string, patch *GeofencePatch) (*Geofence, error) {
	if patch == nil {
		return nil, validation.Fail("geofence", "body", "is required")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := s.validate.Check("geofence", patch); err != nil {
		return nil, err
	}

	g, err := s.repo.GetGeofence(ctx, userID, geofenceID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.RadiusMeters != nil {
		g.RadiusMeters = *patch.RadiusMeters
	}
	if patch.Active != nil {
		g.Active = *patch.Active
	}
	g.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateGeofence(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGeofence removes a user's geofence.
func (s *Service) DeleteGeofence(ctx context.Context, userID, geofenceID string) error {
	return s.repo.DeleteGeofence(ctx, userID, geofenceID)
}
