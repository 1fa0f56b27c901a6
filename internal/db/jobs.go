package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clipforge/internal/models"
)

const jobColumns = `
	id, name, orientation, intro_asset_id, outro_asset_id,
	transition, transition_duration, status, progress, log, error,
	subtitle_status, subtitle_error, subtitle_segments, subtitle_style,
	created_at, started_at, finished_at
`

func scanJob(row interface{ Scan(dest ...interface{}) error }) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(
		&job.ID, &job.Name, &job.Orientation, &job.IntroAssetID, &job.OutroAssetID,
		&job.Transition, &job.TransitionDuration, &job.Status, &job.Progress, &job.Log, &job.Error,
		&job.SubtitleStatus, &job.SubtitleError, &job.SubtitleSegments, &job.SubtitleStyle,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (db *DB) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, name, orientation, intro_asset_id, outro_asset_id,
			transition, transition_duration, status, subtitle_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		job.ID, job.Name, job.Orientation, job.IntroAssetID, job.OutroAssetID,
		job.Transition, job.TransitionDuration, job.Status, job.SubtitleStatus,
	).Scan(&job.CreatedAt)
}

func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (db *DB) ListJobs(ctx context.Context, status models.JobStatus, limit, offset int) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (db *DB) CountJobs(ctx context.Context, status models.JobStatus) (int, error) {
	query := `SELECT COUNT(*) FROM jobs`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// SetJobCuts replaces the ordered cut list of a job.
func (db *DB) SetJobCuts(ctx context.Context, jobID uuid.UUID, cutIDs []uuid.UUID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_cuts WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear job cuts: %w", err)
	}
	for i, cutID := range cutIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO job_cuts (job_id, cut_id, position) VALUES ($1, $2, $3)`,
			jobID, cutID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert job cut: %w", err)
		}
	}
	return tx.Commit()
}

// GetJobCuts returns the job's cuts in render order.
func (db *DB) GetJobCuts(ctx context.Context, jobID uuid.UUID) ([]models.Cut, error) {
	query := `
		SELECT c.id, c.source_id, c.name, c.start_tc, c.end_tc, c.duration_sec, c.created_at
		FROM job_cuts jc
		JOIN cuts c ON c.id = jc.cut_id
		WHERE jc.job_id = $1
		ORDER BY jc.position
	`

	rows, err := db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job cuts: %w", err)
	}
	defer rows.Close()

	var cuts []models.Cut
	for rows.Next() {
		var c models.Cut
		err := rows.Scan(&c.ID, &c.SourceID, &c.Name, &c.StartTC, &c.EndTC, &c.DurationSec, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job cut: %w", err)
		}
		cuts = append(cuts, c)
	}
	return cuts, rows.Err()
}

// GetJobClipRefs resolves the job's cuts to source files and timecodes, in
// render order.
func (db *DB) GetJobClipRefs(ctx context.Context, jobID uuid.UUID) ([]models.ClipRef, error) {
	query := `
		SELECT c.id, s.file, c.start_tc, c.end_tc
		FROM job_cuts jc
		JOIN cuts c ON c.id = jc.cut_id
		JOIN source_videos s ON s.id = c.source_id
		WHERE jc.job_id = $1
		ORDER BY jc.position
	`

	rows, err := db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job clips: %w", err)
	}
	defer rows.Close()

	var clips []models.ClipRef
	for rows.Next() {
		var c models.ClipRef
		if err := rows.Scan(&c.CutID, &c.Path, &c.StartTC, &c.EndTC); err != nil {
			return nil, fmt.Errorf("failed to scan job clip: %w", err)
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// MarkJobQueued resets a job for a new run.
func (db *DB) MarkJobQueued(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET status = 'QUEUED', progress = 0, log = '', error = '',
		    started_at = NULL, finished_at = NULL
		WHERE id = $1
	`
	return db.execJobUpdate(ctx, query, id)
}

func (db *DB) MarkJobRunning(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET status = 'RUNNING', started_at = now(), error = ''
		WHERE id = $1
	`
	return db.execJobUpdate(ctx, query, id)
}

func (db *DB) MarkJobDone(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET status = 'DONE', finished_at = now()
		WHERE id = $1
	`
	return db.execJobUpdate(ctx, query, id)
}

func (db *DB) MarkJobFailed(ctx context.Context, id uuid.UUID, errText string) error {
	query := `
		UPDATE jobs
		SET status = 'FAILED', error = $2, finished_at = now()
		WHERE id = $1
	`
	return db.execJobUpdate(ctx, query, id, errText)
}

// UpdateJobProgress raises the progress value. GREATEST keeps it monotonic
// when parallel stages report out of order.
func (db *DB) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error {
	query := `UPDATE jobs SET progress = GREATEST(progress, $2) WHERE id = $1`
	return db.execJobUpdate(ctx, query, id, progress)
}

func (db *DB) AppendJobLog(ctx context.Context, id uuid.UUID, line string) error {
	query := `UPDATE jobs SET log = log || $2 || E'\n' WHERE id = $1`
	return db.execJobUpdate(ctx, query, id, line)
}

func (db *DB) SetJobSubtitleStatus(ctx context.Context, id uuid.UUID, status models.SubtitleStatus, errText string) error {
	query := `UPDATE jobs SET subtitle_status = $2, subtitle_error = $3 WHERE id = $1`
	return db.execJobUpdate(ctx, query, id, status, errText)
}

func (db *DB) UpdateJobSubtitleSegments(ctx context.Context, id uuid.UUID, segments models.SegmentList) error {
	query := `UPDATE jobs SET subtitle_segments = $2 WHERE id = $1`
	return db.execJobUpdate(ctx, query, id, segments)
}

func (db *DB) UpdateJobSubtitleStyle(ctx context.Context, id uuid.UUID, style models.SubtitleStyle) error {
	query := `UPDATE jobs SET subtitle_style = $2 WHERE id = $1`
	return db.execJobUpdate(ctx, query, id, style)
}

func (db *DB) DeleteJob(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("job not found")
	}
	return nil
}

func (db *DB) execJobUpdate(ctx context.Context, query string, id uuid.UUID, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("job not found")
	}
	return nil
}
