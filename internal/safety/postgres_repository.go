package safety

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safepath/safepath/internal/geo"
)

// Schema creates the ratings table and its latitude index.
const Schema = `
CREATE TABLE IF NOT EXISTS safety_ratings (
	id            TEXT PRIMARY KEY,
	center_lat    DOUBLE PRECISION NOT NULL,
	center_lng    DOUBLE PRECISION NOT NULL,
	radius_meters DOUBLE PRECISION NOT NULL,
	safety_score  DOUBLE PRECISION NOT NULL,
	category      TEXT NOT NULL,
	description   TEXT,
	reporter_id   TEXT,
	anonymous     BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS safety_ratings_center_lat_idx ON safety_ratings (center_lat);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL rating repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const ratingColumns = `
	id, center_lat, center_lng, radius_meters, safety_score,
	category, description, reporter_id, anonymous, created_at
`

// EnsureSchema applies Schema. It is idempotent.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply safety_ratings schema: %w", err)
	}
	return nil
}

// Get retrieves a rating by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM safety_ratings WHERE id = $1`

	rating, err := scanRating(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return rating, nil
}

// ListInLatRange returns every rating whose center latitude lies in [minLat, maxLat].
func (r *PostgresRepository) ListInLatRange(ctx context.Context, minLat, maxLat float64) ([]*Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM safety_ratings
		WHERE center_lat >= $1 AND center_lat <= $2
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRatings(ctx, query, minLat, maxLat)
}

// ListInBox returns up to limit ratings whose center lies inside box, newest first.
func (r *PostgresRepository) ListInBox(ctx context.Context, box geo.Box, limit int) ([]*Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM safety_ratings
		WHERE center_lat BETWEEN $1 AND $2
		  AND center_lng BETWEEN $3 AND $4
		ORDER BY created_at DESC
		LIMIT $5
	`
	return r.queryRatings(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
}

// Create stores a new rating.
func (r *PostgresRepository) Create(ctx context.Context, rating *Rating) error {
	query := `
		INSERT INTO safety_ratings (
			id, center_lat, center_lng, radius_meters, safety_score,
			category, description, reporter_id, anonymous, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.Center.Lat,
		rating.Center.Lng,
		rating.RadiusMeters,
		rating.SafetyScore,
		string(rating.Category),
		rating.Description,
		rating.ReporterID,
		rating.Anonymous,
		rating.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) queryRatings(ctx context.Context, query string, args ...interface{}) ([]*Rating, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func scanRating(row pgx.Row) (*Rating, error) {
	var (
		rating   Rating
		category string
	)

	err := row.Scan(
		&rating.ID,
		&rating.Center.Lat,
		&rating.Center.Lng,
		&rating.RadiusMeters,
		&rating.SafetyScore,
		&category,
		&rating.Description,
		&rating.ReporterID,
		&rating.Anonymous,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rating.Category = Category(category)
	return &rating, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
