package incident

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/contacts"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/location"
	"github.com/safepath/safepath/internal/validation"
)

// List limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ContactLister supplies the recipients of an alert.
type ContactLister interface {
	List(ctx context.Context, userID string) ([]*contacts.Contact, error)
}

// LocationRecorder keeps the user's last known position current.
type LocationRecorder interface {
	Record(ctx context.Context, userID string, p geo.Point) (*location.Update, error)
}

// ServiceConfig holds configuration for the incident service.
type ServiceConfig struct {
	Repository Repository
	Contacts   ContactLister
	Locations  LocationRecorder
	Notifier   Notifier
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service raises, lists and closes incidents.
type Service struct {
	repo      Repository
	contacts  ContactLister
	locations LocationRecorder
	notifier  Notifier
	logger    zerolog.Logger
	now       func() time.Time
	validate  *validation.Validator
}

// NewService creates a new incident service. A nil Notifier logs alerts instead.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}
	return &Service{
		repo:      cfg.Repository,
		contacts:  cfg.Contacts,
		locations: cfg.Locations,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		now:       cfg.Now,
		validate:  validation.New(),
	}
}

// Trigger raises an active incident at the given position, records it as the
// user's last known location and alerts their emergency contacts.
// The incident is stored even when the location update or the alert fails.
func (s *Service) Trigger(ctx context.Context, userID string, input *TriggerInput) (*Incident, error) {
	if input == nil {
		return nil, validation.Fail("incident", "body", "is required")
	}
	if input.Type == "" {
		input.Type = TypeSOS
	}
	if err := s.validate.Check("incident", input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inc := &Incident{
		ID:        "inc_" + uuid.New().String()[:22],
		UserID:    userID,
		Type:      input.Type,
		Status:    StatusActive,
		Location:  geo.Point{Lat: input.Lat, Lng: input.Lng},
		Address:   optional(input.Address),
		Note:      optional(input.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, inc); err != nil {
		return nil, fmt.Errorf("store incident: %w", err)
	}

	log := s.logger.With().Str("incident_id", inc.ID).Str("user_id", userID).Logger()
	log.Warn().Str("type", string(inc.Type)).Msg("incident raised")

	if s.locations != nil {
		if _, err := s.locations.Record(ctx, userID, inc.Location); err != nil {
			log.Error().Err(err).Msg("failed to record last known location")
		}
	}

	notified, err := s.alertContacts(ctx, inc)
	if err != nil {
		log.Error().Err(err).Msg("failed to alert emergency contacts")
		return inc, nil
	}

	inc.ContactsNotified = notified
	if err := s.repo.Update(ctx, inc); err != nil {
		log.Error().Err(err).Msg("failed to record alert delivery")
	}
	return inc, nil
}

func (s *Service) alertContacts(ctx context.Context, inc *Incident) (int, error) {
	var recipients []Recipient
	if s.contacts != nil {
		list, err := s.contacts.List(ctx, inc.UserID)
		if err != nil {
			return 0, fmt.Errorf("list contacts: %w", err)
		}
		for _, c := range list {
			recipients = append(recipients, Recipient{Name: c.Name, Phone: c.Phone, Relation: c.Relation})
		}
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	alert := &Alert{
		IncidentID: inc.ID,
		UserID:     inc.UserID,
		Type:       inc.Type,
		Lat:        inc.Location.Lat,
		Lng:        inc.Location.Lng,
		Address:    inc.Address,
		Recipients: recipients,
		RaisedAt:   inc.CreatedAt,
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		return 0, err
	}
	return len(recipients), nil
}

// Cancel closes every active incident of the user as cancelled and returns them.
func (s *Service) Cancel(ctx context.Context, userID string) ([]*Incident, error) {
	active, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active incidents: %w", err)
	}

	for _, inc := range active {
		if err := s.close(ctx, inc, StatusCancelled); err != nil {
			return nil, err
		}
	}
	if len(active) > 0 {
		s.logger.Info().Str("user_id", userID).Int("count", len(active)).Msg("incidents cancelled")
	}
	return active, nil
}

// Resolve closes one active incident as resolved.
func (s *Service) Resolve(ctx context.Context, userID, incidentID string) (*Incident, error) {
	inc, err := s.repo.GetByUserAndID(ctx, userID, incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status != StatusActive {
		return nil, ErrIncidentClosed
	}
	if err := s.close(ctx, inc, StatusResolved); err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *Service) close(ctx context.Context, inc *Incident, status Status) error {
	now := s.now().UTC()
	inc.Status = status
	inc.UpdatedAt = now
	inc.ClosedAt = &now
	if err := s.repo.Update(ctx, inc); err != nil {
		return fmt.Errorf("close incident %s: %w", inc.ID, err)
	}
	return nil
}

// Get returns one of the user's incidents.
func (s *Service) Get(ctx context.Context, userID, incidentID string) (*Incident, error) {
	return s.repo.GetByUserAndID(ctx, userID, incidentID)
}

// List returns the user's incident history, newest first.
// A non-positive limit uses DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]*Incident, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, userID, limit)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
