// Package contacts stores the emergency contacts alerted when a user raises an SOS.
package contacts

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrContactNotFound     = errors.New("emergency contact not found")
	ErrContactLimitReached = errors.New("emergency contact limit reached")
)

// MaxContactsPerUser bounds the contacts an SOS fans out to.
const MaxContactsPerUser = 10

// Contact is a person to notify when the owning user raises an SOS.
type Contact struct {
	ID        string
	UserID    string
	Name      string
	Phone     string
	Relation  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput is a new emergency contact.
type CreateInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,phone"`
	Relation string `json:"relation,omitempty" validate:"max=50"`
}

// UpdateInput changes the fields that are set.
type UpdateInput struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitnil,phone"`
	Relation *string `json:"relation,omitempty" validate:"omitnil,max=50"`
}
