package safety

import (
	"context"
	"sort"
	"sync"

	"github.com/safepath/safepath/internal/geo"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Intended for tests and local development. Production uses PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	ratings map[string]*Rating
	order   []string
}

// NewInMemoryRepository creates a new in-memory rating repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		ratings: make(map[string]*Rating),
	}
}

// Get retrieves a rating by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rating, ok := r.ratings[id]
	if !ok {
		return nil, ErrRatingNotFound
	}

	cpy := *rating
	return &cpy, nil
}

// ListInLatRange returns ratings in insertion order whose center latitude is in range.
func (r *InMemoryRepository) ListInLatRange(_ context.Context, minLat, maxLat float64) ([]*Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Rating
	for _, id := range r.order {
		rating := r.ratings[id]
		if rating.Center.Lat >= minLat && rating.Center.Lat <= maxLat {
			cpy := *rating
			out = append(out, &cpy)
		}
	}
	return out, nil
}

// ListInBox returns up to limit ratings inside box, newest first.
func (r *InMemoryRepository) ListInBox(_ context.Context, box geo.Box, limit int) ([]*Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Rating
	for _, id := range r.order {
		rating := r.ratings[id]
		if box.Contains(rating.Center) {
			cpy := *rating
			out = append(out, &cpy)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create stores a new rating.
func (r *InMemoryRepository) Create(_ context.Context, rating *Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *rating
	if _, exists := r.ratings[rating.ID]; !exists {
		r.order = append(r.order, rating.ID)
	}
	r.ratings[rating.ID] = &cpy
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
