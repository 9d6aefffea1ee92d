package location

import "context"

// Repository defines the interface for location and geofence persistence.
type Repository interface {
	// SaveLastKnown replaces the user's last known position.
	SaveLastKnown(ctx context.Context, loc *LastKnown) error

	// GetLastKnown returns ErrLocationNotFound if the user never reported one.
	GetLastKnown(ctx context.Context, userID string) (*LastKnown, error)

	// ListGeofences returns a user's geofences, oldest first.
	ListGeofences(ctx context.Context, userID string) ([]*Geofence, error)

	// GetGeofence returns ErrGeofenceNotFound if it doesn't exist or belongs to another user.
	GetGeofence(ctx context.Context, userID, geofenceID string) (*Geofence, error)

	CreateGeofence(ctx context.Context, g *Geofence) error
	UpdateGeofence(ctx context.Context, g *Geofence) error
	DeleteGeofence(ctx context.Context, userID, geofenceID string) error
}
