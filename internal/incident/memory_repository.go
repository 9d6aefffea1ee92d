package incident

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	incidents map[string]*Incident
}

// NewInMemoryRepository creates a new in-memory incident repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		incidents: make(map[string]*Incident),
	}
}

func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, incidentID string) (*Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inc, ok := r.incidents[incidentID]
	if !ok || inc.UserID != userID {
		return nil, ErrIncidentNotFound
	}
	return clone(inc), nil
}

func (r *InMemoryRepository) List(_ context.Context, userID string, limit int) ([]*Incident, error) {
	out := r.filter(userID, func(*Incident) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) ListActive(_ context.Context, userID string) ([]*Incident, error) {
	out := r.filter(userID, func(inc *Incident) bool { return inc.Status == StatusActive })
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, inc *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.incidents[inc.ID] = clone(inc)
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, inc *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.incidents[inc.ID]
	if !ok || existing.UserID != inc.UserID {
		return ErrIncidentNotFound
	}
	r.incidents[inc.ID] = clone(inc)
	return nil
}

func (r *InMemoryRepository) filter(userID string, keep func(*Incident) bool) []*Incident {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Incident
	for _, inc := range r.incidents {
		if inc.UserID == userID && keep(inc) {
			out = append(out, clone(inc))
		}
	}
	return out
}

// clone copies inc including its pointer fields.
func clone(inc *Incident) *Incident {
	cpy := *inc
	if inc.ClosedAt != nil {
		t := *inc.ClosedAt
		cpy.ClosedAt = &t
	}
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
