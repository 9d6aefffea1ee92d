package incident

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the incidents table.
const Schema = `
CREATE TABLE IF NOT EXISTS incidents (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	type              TEXT NOT NULL,
	status            TEXT NOT NULL,
	lat               DOUBLE PRECISION NOT NULL,
	lng               DOUBLE PRECISION NOT NULL,
	address           TEXT,
	note              TEXT,
	contacts_notified INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	closed_at         TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS incidents_user_id_created_at_idx ON incidents (user_id, created_at DESC);
`

const incidentColumns = `
	id, user_id, type, status, lat, lng, address, note,
	contacts_notified, created_at, updated_at, closed_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL incident repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema applies Schema. It is idempotent.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply incidents schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, incidentID string) (*Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1 AND user_id = $2`

	inc, err := scanIncident(r.pool.QueryRow(ctx, query, incidentID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}
	return inc, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit int) ([]*Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.query(ctx, query, userID, limit)
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]*Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query, userID, string(StatusActive))
}

func (r *PostgresRepository) Create(ctx context.Context, inc *Incident) error {
	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		inc.ID,
		inc.UserID,
		string(inc.Type),
		string(inc.Status),
		inc.Location.Lat,
		inc.Location.Lng,
		inc.Address,
		inc.Note,
		inc.ContactsNotified,
		inc.CreatedAt,
		inc.UpdatedAt,
		inc.ClosedAt,
	)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, inc *Incident) error {
	query := `
		UPDATE incidents SET
			status = $3,
			contacts_notified = $4,
			updated_at = $5,
			closed_at = $6
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		inc.ID, inc.UserID, string(inc.Status), inc.ContactsNotified, inc.UpdatedAt, inc.ClosedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Incident, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanIncident(row pgx.Row) (*Incident, error) {
	var (
		inc         Incident
		typ, status string
	)
	err := row.Scan(
		&inc.ID,
		&inc.UserID,
		&typ,
		&status,
		&inc.Location.Lat,
		&inc.Location.Lng,
		&inc.Address,
		&inc.Note,
		&inc.ContactsNotified,
		&inc.CreatedAt,
		&inc.UpdatedAt,
		&inc.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	inc.Type = Type(typ)
	inc.Status = Status(status)
	return &inc, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
