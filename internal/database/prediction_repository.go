package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/irfndi/hdb-resale-go/internal/models"
)

const predictionsTable = "predictions"

// MaxRecentLimit caps the number of rows Recent returns.
const MaxRecentLimit = 100

// DatabasePool defines the interface for database pool operations.
// Both *pgxpool.Pool and pgxmock satisfy it.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const createPredictionsTable = `
	CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		request_id TEXT NOT NULL,
		price NUMERIC(14, 2) NOT NULL,
		strategy TEXT NOT NULL,
		model_version TEXT NOT NULL,
		town TEXT NOT NULL,
		flat_type TEXT NOT NULL,
		storey_range TEXT NOT NULL,
		flat_model TEXT NOT NULL,
		floor_area_sqm DOUBLE PRECISION NOT NULL,
		remaining_lease_year INTEGER NOT NULL,
		age_of_flat DOUBLE PRECISION,
		distance_to_mrt DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

const createPredictionsIndex = `CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC)`

// Tables created before the optional inputs were recorded gain them here.
const addOptionalInputColumns = `
	ALTER TABLE predictions
		ADD COLUMN IF NOT EXISTS age_of_flat DOUBLE PRECISION,
		ADD COLUMN IF NOT EXISTS distance_to_mrt DOUBLE PRECISION`

// PredictionRepository persists completed predictions.
type PredictionRepository struct {
	pool DatabasePool
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// EnsureSchema creates the predictions table when it does not exist.
func (r *PredictionRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createPredictionsTable, addOptionalInputColumns, createPredictionsIndex} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate predictions table: %w", err)
		}
	}
	return nil
}

// Save inserts rec. An empty ID is replaced with a new UUID.
func (r *PredictionRepository) Save(ctx context.Context, rec *models.PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `
		INSERT INTO predictions (
			id, request_id, price, strategy, model_version,
			town, flat_type, storey_range, flat_model,
			floor_area_sqm, remaining_lease_year, age_of_flat, distance_to_mrt,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.RequestID, rec.Price, rec.Strategy, rec.ModelVersion,
		rec.Town, rec.FlatType, rec.StoreyRange, rec.FlatModel,
		rec.FloorAreaSqm, rec.LeaseYears, rec.AgeOfFlat, rec.DistanceToMRT,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// Recent returns the newest predictions first. limit is clamped to
// [1, MaxRecentLimit].
func (r *PredictionRepository) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `
		SELECT id, request_id, price, strategy, model_version,
			town, flat_type, storey_range, flat_model,
			floor_area_sqm, remaining_lease_year, age_of_flat, distance_to_mrt,
			created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]models.PredictionRecord, 0, limit)
	for rows.Next() {
		var rec models.PredictionRecord
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.Price, &rec.Strategy, &rec.ModelVersion,
			&rec.Town, &rec.FlatType, &rec.StoreyRange, &rec.FlatModel,
			&rec.FloorAreaSqm, &rec.LeaseYears, &rec.AgeOfFlat, &rec.DistanceToMRT,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return out, nil
}

// Count returns the number of stored predictions.
func (r *PredictionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}
