package incident

import "context"

// Repository defines the interface for incident persistence.
type Repository interface {
	// GetByUserAndID returns ErrIncidentNotFound if it doesn't exist or belongs to another user.
	GetByUserAndID(ctx context.Context, userID, incidentID string) (*Incident, error)

	// List returns up to limit of a user's incidents, newest first.
	List(ctx context.Context, userID string, limit int) ([]*Incident, error)

	// ListActive returns a user's active incidents, oldest first.
	ListActive(ctx context.Context, userID string) ([]*Incident, error)

	Create(ctx context.Context, incident *Incident) error
	Update(ctx context.Context, incident *Incident) error
}
