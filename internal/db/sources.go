package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clipforge/internal/models"
)

func (db *DB) CreateSourceVideo(ctx context.Context, src *models.SourceVideo) error {
	query := `
		INSERT INTO source_videos (id, brand_id, title, file, duration_sec, width, height, has_audio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		src.ID, src.BrandID, src.Title, src.File,
		src.DurationSec, src.Width, src.Height, src.HasAudio,
	).Scan(&src.CreatedAt)
}

func (db *DB) GetSourceVideo(ctx context.Context, id uuid.UUID) (*models.SourceVideo, error) {
	query := `
		SELECT id, brand_id, title, file, duration_sec, width, height, has_audio, created_at
		FROM source_videos
		WHERE id = $1
	`

	src := &models.SourceVideo{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&src.ID, &src.BrandID, &src.Title, &src.File,
		&src.DurationSec, &src.Width, &src.Height, &src.HasAudio, &src.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source video: %w", err)
	}
	return src, nil
}

func (db *DB) ListSourceVideos(ctx context.Context, brandID *uuid.UUID) ([]models.SourceVideo, error) {
	query := `
		SELECT id, brand_id, title, file, duration_sec, width, height, has_audio, created_at
		FROM source_videos
	`
	var args []interface{}
	if brandID != nil {
		query += ` WHERE brand_id = $1`
		args = append(args, *brandID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query source videos: %w", err)
	}
	defer rows.Close()

	var sources []models.SourceVideo
	for rows.Next() {
		var s models.SourceVideo
		err := rows.Scan(
			&s.ID, &s.BrandID, &s.Title, &s.File,
			&s.DurationSec, &s.Width, &s.Height, &s.HasAudio, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source video: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (db *DB) DeleteSourceVideo(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM source_videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source video: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("source video not found")
	}
	return nil
}
