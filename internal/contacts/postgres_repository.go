package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the emergency contacts table.
const Schema = `
CREATE TABLE IF NOT EXISTS emergency_contacts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	relation   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS emergency_contacts_user_id_idx ON emergency_contacts (user_id);
`

const contactColumns = `id, user_id, name, phone, relation, created_at, updated_at`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL contact repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema applies Schema. It is idempotent.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply emergency_contacts schema: %w", err)
	}
	return nil
}

// GetByUserAndID retrieves a contact owned by userID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, contactID string) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM emergency_contacts WHERE id = $1 AND user_id = $2`

	c, err := scanContact(r.pool.QueryRow(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns every contact of a user, oldest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many contacts a user has.
func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM emergency_contacts WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// Create stores a new contact.
func (r *PostgresRepository) Create(ctx context.Context, c *Contact) error {
	query := `
		INSERT INTO emergency_contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.Phone, c.Relation, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Update replaces an existing contact.
func (r *PostgresRepository) Update(ctx context.Context, c *Contact) error {
	query := `
		UPDATE emergency_contacts SET
			name = $3,
			phone = $4,
			relation = $5,
			updated_at = $6
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.Name, c.Phone, c.Relation, c.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Delete removes a contact owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, contactID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relation, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
