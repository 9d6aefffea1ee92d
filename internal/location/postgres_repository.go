package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the last-known-location and geofence tables.
const Schema = `
CREATE TABLE IF NOT EXISTS user_locations (
	user_id     TEXT PRIMARY KEY,
	lat         DOUBLE PRECISION NOT NULL,
	lng         DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS geofences (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	center_lat    DOUBLE PRECISION NOT NULL,
	center_lng    DOUBLE PRECISION NOT NULL,
	radius_meters DOUBLE PRECISION NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS geofences_user_id_idx ON geofences (user_id);
`

const geofenceColumns = `
	id, user_id, name, center_lat, center_lng, radius_meters,
	active, created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL location repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema applies Schema. It is idempotent.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply location schema: %w", err)
	}
	return nil
}

// SaveLastKnown upserts the user's last known position.
func (r *PostgresRepository) SaveLastKnown(ctx context.Context, loc *LastKnown) error {
	query := `
		INSERT INTO user_locations (user_id, lat, lng, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			recorded_at = EXCLUDED.recorded_at
	`
	_, err := r.pool.Exec(ctx, query, loc.UserID, loc.Point.Lat, loc.Point.Lng, loc.RecordedAt)
	return err
}

func (r *PostgresRepository) GetLastKnown(ctx context.Context, userID string) (*LastKnown, error) {
	loc := LastKnown{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT lat, lng, recorded_at FROM user_locations WHERE user_id = $1`, userID,
	).Scan(&loc.Point.Lat, &loc.Point.Lng, &loc.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *PostgresRepository) ListGeofences(ctx context.Context, userID string) ([]*Geofence, error) {
	query := `
		SELECT ` + geofenceColumns + `
		FROM geofences
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) GetGeofence(ctx context.Context, userID, geofenceID string) (*Geofence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE id = $1 AND user_id = $2`

	g, err := scanGeofence(r.pool.QueryRow(ctx, query, geofenceID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGeofenceNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) CreateGeofence(ctx context.Context, g *Geofence) error {
	query := `
		INSERT INTO geofences (` + geofenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		g.ID, g.UserID, g.Name, g.Center.Lat, g.Center.Lng, g.RadiusMeters,
		g.Active, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) UpdateGeofence(ctx context.Context, g *Geofence) error {
	query := `
		UPDATE geofences SET
			name = $3,
			radius_meters = $4,
			active = $5,
			updated_at = $6
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query, g.ID, g.UserID, g.Name, g.RadiusMeters, g.Active, g.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGeofenceNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteGeofence(ctx context.Context, userID, geofenceID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM geofences WHERE id = $1 AND user_id = $2`, geofenceID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGeofenceNotFound
	}
	return nil
}

func scanGeofence(row pgx.Row) (*Geofence, error) {
	var g Geofence
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.Center.Lat,
		&g.Center.Lng,
		&g.RadiusMeters,
		&g.Active,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
