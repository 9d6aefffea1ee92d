// Package location tracks each user's last known position and the geofences
// that position is checked against.
package location

import (
	"errors"
	"time"

	"github.com/safepath/safepath/internal/geo"
)

// Repository errors.
var (
	ErrLocationNotFound     = errors.New("no location recorded")
	ErrGeofenceNotFound     = errors.New("geofence not found")
	ErrGeofenceLimitReached = errors.New("geofence limit reached")
)

// Geofence limits.
const (
	DefaultGeofenceRadius = 100
	MaxGeofencesPerUser   = 20
)

// LastKnown is the most recent position a user reported.
type LastKnown struct {
	UserID     string
	Point      geo.Point
	RecordedAt time.Time
}

// Geofence is a named circle a user wants to be alerted about.
type Geofence struct {
	ID           string
	UserID       string
	Name         string
	Center       geo.Point
	RadiusMeters float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contains reports whether p lies inside the geofence.
func (g *Geofence) Contains(p geo.Point) bool {
	return geo.WithinRadius(p, g.Center, g.RadiusMeters)
}

// Update is the outcome of recording a position: the active geofences the
// user is now inside, and the transitions since the previous position.
type Update struct {
	Location *LastKnown
	Inside   []*Geofence
	Entered  []*Geofence
	Exited   []*Geofence
}

// PointInput is a reported position.
type PointInput struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// GeofenceInput is a new geofence. A zero radius uses DefaultGeofenceRadius.
type GeofenceInput struct {
	Name         string  `json:"name" validate:"required,max=80"`
	Lat          float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng          float64 `json:"lng" validate:"gte=-180,lte=180"`
	RadiusMeters float64 `json:"radiusMeters,omitempty" validate:"omitempty,gte=10,lte=5000"`
}

// GeofencePatch changes the fields that are set.
type GeofencePatch struct {
	Name         *string  `json:"name,omitempty" validate:"omitnil,min=1,max=80"`
	RadiusMeters *float64 `json:"radiusMeters,omitempty" validate:"omitnil,gte=10,lte=5000"`
	Active       *bool    `json:"active,omitempty"`
}
