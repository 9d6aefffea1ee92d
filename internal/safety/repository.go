package safety

import (
	"context"

	"github.com/safepath/safepath/internal/geo"
)

// Repository defines the interface for safety rating persistence.
type Repository interface {
	// Get retrieves a rating by ID.
	Get(ctx context.Context, id string) (*Rating, error)

	// ListInLatRange returns every rating whose center latitude lies in [minLat, maxLat].
	// This is the coarse pre-filter used before exact zone containment.
	ListInLatRange(ctx context.Context, minLat, maxLat float64) ([]*Rating, error)

	// ListInBox returns up to limit ratings whose center lies inside box, newest first.
	ListInBox(ctx context.Context, box geo.Box, limit int) ([]*Rating, error)

	// Create stores a new rating.
	Create(ctx context.Context, rating *Rating) error
}
