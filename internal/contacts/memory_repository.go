package contacts

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs tests and the memory store; production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	contacts map[string]*Contact
}

// NewInMemoryRepository creates a new in-memory contact repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		contacts: make(map[string]*Contact),
	}
}

// GetByUserAndID retrieves a contact owned by userID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, contactID string) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[contactID]
	if !ok || c.UserID != userID {
		return nil, ErrContactNotFound
	}

	cpy := *c
	return &cpy, nil
}

// List returns every contact of a user, oldest first.
func (r *InMemoryRepository) List(_ context.Context, userID string) ([]*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Contact
	for _, c := range r.contacts {
		if c.UserID == userID {
			cpy := *c
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

// Count returns how many contacts a user has.
func (r *InMemoryRepository) Count(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.contacts {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Create stores a new contact.
func (r *InMemoryRepository) Create(_ context.Context, c *Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *c
	r.contacts[c.ID] = &cpy
	return nil
}

// Update replaces an existing contact.
func (r *InMemoryRepository) Update(_ context.Context, c *Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[c.ID]
	if !ok || existing.UserID != c.UserID {
		return ErrContactNotFound
	}

	cpy := *c
	r.contacts[c.ID] = &cpy
	return nil
}

// Delete removes a contact owned by userID.
func (r *InMemoryRepository) Delete(_ context.Context, userID, contactID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contacts[contactID]
	if !ok || c.UserID != userID {
		return ErrContactNotFound
	}
	delete(r.contacts, contactID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
