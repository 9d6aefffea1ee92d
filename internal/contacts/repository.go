package contacts

import "context"

// Repository defines the interface for emergency contact persistence.
type Repository interface {
	// GetByUserAndID retrieves a contact owned by userID.
	// Returns ErrContactNotFound if it doesn't exist or belongs to another user.
	GetByUserAndID(ctx context.Context, userID, contactID string) (*Contact, error)

	// List returns every contact of a user, oldest first.
	List(ctx context.Context, userID string) ([]*Contact, error)

	// Count returns how many contacts a user has.
	Count(ctx context.Context, userID string) (int, error)

	Create(ctx context.Context, contact *Contact) error
	Update(ctx context.Context, contact *Contact) error

	// Delete removes a contact owned by userID.
	Delete(ctx context.Context, userID, contactID string) error
}
