package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clipforge/internal/models"
)

// UpsertRenderOutput records the job's one live artifact, replacing any
// previous row.
func (db *DB) UpsertRenderOutput(ctx context.Context, out *models.RenderOutput) error {
	query := `
		INSERT INTO render_outputs (job_id, file)
		VALUES ($1, $2)
		ON CONFLICT (job_id) DO UPDATE SET file = EXCLUDED.file, created_at = now()
		RETURNING created_at
	`

	return db.QueryRowContext(ctx, query, out.JobID, out.File).Scan(&out.CreatedAt)
}

func (db *DB) GetRenderOutput(ctx context.Context, jobID uuid.UUID) (*models.RenderOutput, error) {
	query := `SELECT job_id, file, created_at FROM render_outputs WHERE job_id = $1`

	out := &models.RenderOutput{}
	err := db.QueryRowContext(ctx, query, jobID).Scan(&out.JobID, &out.File, &out.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("render output not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render output: %w", err)
	}
	return out, nil
}
