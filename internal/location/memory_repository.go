package location

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	locations map[string]*LastKnown
	geofences map[string]*Geofence
}

// NewInMemoryRepository creates a new in-memory location repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		locations: make(map[string]*LastKnown),
		geofences: make(map[string]*Geofence),
	}
}

func (r *InMemoryRepository) SaveLastKnown(_ context.Context, loc *LastKnown) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *loc
	r.locations[loc.UserID] = &cpy
	return nil
}

func (r *InMemoryRepository) GetLastKnown(_ context.Context, userID string) (*LastKnown, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[userID]
	if !ok {
		return nil, ErrLocationNotFound
	}
	cpy := *loc
	return &cpy, nil
}

func (r *InMemoryRepository) ListGeofences(_ context.Context, userID string) ([]*Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Geofence
	for _, g := range r.geofences {
		if g.UserID == userID {
			cpy := *g
			out = append(out, &cpy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) GetGeofence(_ context.Context, userID, geofenceID string) (*Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.geofences[geofenceID]
	if !ok || g.UserID != userID {
		return nil, ErrGeofenceNotFound
	}
	cpy := *g
	return &cpy, nil
}

func (r *InMemoryRepository) CreateGeofence(_ context.Context, g *Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *g
	r.geofences[g.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) UpdateGeofence(_ context.Context, g *Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.geofences[g.ID]
	if !ok || existing.UserID != g.UserID {
		return ErrGeofenceNotFound
	}
	cpy := *g
	r.geofences[g.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) DeleteGeofence(_ context.Context, userID, geofenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.geofences[geofenceID]
	if !ok || g.UserID != userID {
		return ErrGeofenceNotFound
	}
	delete(r.geofences, geofenceID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
