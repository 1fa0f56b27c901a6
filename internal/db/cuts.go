package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clipforge/internal/models"
)

func (db *DB) CreateCut(ctx context.Context, cut *models.Cut) error {
	query := `
		INSERT INTO cuts (id, source_id, name, start_tc, end_tc, duration_sec)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		cut.ID, cut.SourceID, cut.Name, cut.StartTC, cut.EndTC, cut.DurationSec,
	).Scan(&cut.CreatedAt)
}

// CreateCuts inserts a batch of cuts for one source in a single transaction.
func (db *DB) CreateCuts(ctx context.Context, cuts []*models.Cut) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO cuts (id, source_id, name, start_tc, end_tc, duration_sec)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	for _, cut := range cuts {
		err := tx.QueryRowContext(
			ctx, query,
			cut.ID, cut.SourceID, cut.Name, cut.StartTC, cut.EndTC, cut.DurationSec,
		).Scan(&cut.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert cut: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) GetCut(ctx context.Context, id uuid.UUID) (*models.Cut, error) {
	query := `
		SELECT id, source_id, name, start_tc, end_tc, duration_sec, created_at
		FROM cuts
		WHERE id = $1
	`

	cut := &models.Cut{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&cut.ID, &cut.SourceID, &cut.Name, &cut.StartTC, &cut.EndTC, &cut.DurationSec, &cut.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cut not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cut: %w", err)
	}
	return cut, nil
}

func (db *DB) ListCuts(ctx context.Context, sourceID uuid.UUID) ([]models.Cut, error) {
	query := `
		SELECT id, source_id, name, start_tc, end_tc, duration_sec, created_at
		FROM cuts
		WHERE source_id = $1
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cuts: %w", err)
	}
	defer rows.Close()

	var cuts []models.Cut
	for rows.Next() {
		var c models.Cut
		err := rows.Scan(&c.ID, &c.SourceID, &c.Name, &c.StartTC, &c.EndTC, &c.DurationSec, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cut: %w", err)
		}
		cuts = append(cuts, c)
	}
	return cuts, rows.Err()
}

func (db *DB) DeleteCut(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM cuts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cut: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("cut not found")
	}
	return nil
}
