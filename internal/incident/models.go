// Package incident records SOS incidents and alerts the user's emergency contacts.
package incident

import (
	"errors"
	"time"

	"github.com/safepath/safepath/internal/geo"
)

// Repository errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrIncidentClosed   = errors.New("incident is no longer active")
)

// Type classifies why an incident was raised.
type Type string

const (
	TypeSOS        Type = "sos"
	TypeHarassment Type = "harassment"
	TypeStalking   Type = "stalking"
	TypeMedical    Type = "medical"
	TypeOther      Type = "other"
)

// Status is the lifecycle state of an incident.
// Only active incidents can move, to cancelled or resolved.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusResolved  Status = "resolved"
)

// Incident is an emergency raised by a user.
type Incident struct {
	ID               string
	UserID           string
	Type             Type
	Status           Status
	Location         geo.Point
	Address          *string
	Note             *string
	ContactsNotified int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClosedAt         *time.Time
}

// TriggerInput raises an SOS. An empty type means TypeSOS.
type TriggerInput struct {
	Type    Type    `json:"type,omitempty" validate:"omitempty,oneof=sos harassment stalking medical other"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address string  `json:"address,omitempty" validate:"max=300"`
	Note    string  `json:"note,omitempty" validate:"max=500"`
}
