package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/validation"
)

const validationSubject = "emergency contact"

// ServiceConfig holds configuration for the contact service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service manages a user's emergency contacts.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	now      func() time.Time
	validate *validation.Validator
}

// NewService creates a new contact service.
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

// List returns a user's contacts, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Contact, error) {
	return s.repo.List(ctx, userID)
}

// Get returns one of a user's contacts.
func (s *Service) Get(ctx context.Context, userID, contactID string) (*Contact, error) {
	return s.repo.GetByUserAndID(ctx, userID, contactID)
}

// Add creates a contact. A user may hold at most MaxContactsPerUser.
func (s *Service) Add(ctx context.Context, userID string, input *CreateInput) (*Contact, error) {
	if input == nil {
		return nil, validation.Fail(validationSubject, "body", "is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Relation = strings.TrimSpace(input.Relation)
	if err := s.validate.Check(validationSubject, input); err != nil {
		return nil, err
	}

	n, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	if n >= MaxContactsPerUser {
		return nil, ErrContactLimitReached
	}

	now := s.now().UTC()
	contact := &Contact{
		ID:        "con_" + uuid.New().String()[:22],
		UserID:    userID,
		Name:      input.Name,
		Phone:     input.Phone,
		Relation:  input.Relation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("store contact: %w", err)
	}

	s.logger.Info().
		Str("contact_id", contact.ID).
		Str("user_id", userID).
		Msg("emergency contact added")
	return contact, nil
}

// Update applies the set fields of input to a user's contact.
func (s *Service) Update(ctx context.Context, userID, contactID string, input *UpdateInput) (*Contact, error) {
	if input == nil {
		return nil, validation.Fail(validationSubject, "body", "is required")
	}
	trim(input.Name)
	trim(input.Phone)
	trim(input.Relation)
	if err := s.validate.Check(validationSubject, input); err != nil {
		return nil, err
	}

	contact, err := s.repo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		contact.Name = *input.Name
	}
	if input.Phone != nil {
		contact.Phone = *input.Phone
	}
	if input.Relation != nil {
		contact.Relation = *input.Relation
	}
	contact.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Remove deletes a user's contact.
func (s *Service) Remove(ctx context.Context, userID, contactID string) error {
	if err := s.repo.Delete(ctx, userID, contactID); err != nil {
		return err
	}
	s.logger.Info().
		Str("contact_id", contactID).
		Str("user_id", userID).
		Msg("emergency contact removed")
	return nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
