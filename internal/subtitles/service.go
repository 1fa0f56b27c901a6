package subtitles

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"clipforge/internal/models"
	"clipforge/internal/storage"
)

// Store is the subset of persistence the subtitle workers need.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetRenderOutput(ctx context.Context, jobID uuid.UUID) (*models.RenderOutput, error)
	SetJobSubtitleStatus(ctx context.Context, id uuid.UUID, status models.SubtitleStatus, errText string) error
	UpdateJobSubtitleSegments(ctx context.Context, id uuid.UUID, segments models.SegmentList) error
	UpsertRenderOutput(ctx context.Context, out *models.RenderOutput) error
}

// SpeechToText produces timestamped segments from a media file.
type SpeechToText interface {
	Transcribe(ctx context.Context, path, language string) ([]models.Segment, error)
}

// Burner renders a subtitle file into the video stream.
type Burner interface {
	BurnSubtitles(ctx context.Context, input, subtitlePath, output, forceStyle string) error
}

// Service runs the two async subtitle operations. The API moves a job into
// "generating" or "burning" before enqueueing; the service finishes the
// transition to ready_for_edit/burned on success or error on failure, with the
// failure message recorded on the job.
type Service struct {
	store    Store
	stt      SpeechToText
	burner   Burner
	media    *storage.Store
	language string
}

func NewService(store Store, stt SpeechToText, burner Burner, media *storage.Store, language string) *Service {
	return &Service{
		store:    store,
		stt:      stt,
		burner:   burner,
		media:    media,
		language: language,
	}
}

// GenerateForJob transcribes the job's rendered artifact and stores the
// segments.
func (s *Service) GenerateForJob(ctx context.Context, jobID uuid.UUID) error {
	out, err := s.store.GetRenderOutput(ctx, jobID)
	if err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("job has no rendered output: %w", err))
	}

	log.Printf("[Subtitles] Transcribing job %s (%s)", jobID, out.File)
	segments, err := s.stt.Transcribe(ctx, s.media.Abs(out.File), s.language)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}
	if len(segments) == 0 {
		return s.fail(ctx, jobID, fmt.Errorf("transcription returned no segments"))
	}

	if err := s.store.UpdateJobSubtitleSegments(ctx, jobID, segments); err != nil {
		return s.fail(ctx, jobID, err)
	}
	log.Printf("[Subtitles] Job %s: %d segments ready for edit", jobID, len(segments))
	return s.store.SetJobSubtitleStatus(ctx, jobID, models.SubtitleStatusReadyForEdit, "")
}

// BurnForJob renders the job's segments to a subtitle file and burns them
// into the artifact, replacing it in place. Animated style produces an ASS
// track with word accumulation; otherwise a plain SRT track styled via
// force_style.
func (s *Service) BurnForJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}
	out, err := s.store.GetRenderOutput(ctx, jobID)
	if err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("job has no rendered output: %w", err))
	}
	if len(job.SubtitleSegments) == 0 {
		return s.fail(ctx, jobID, fmt.Errorf("job has no subtitle segments to burn"))
	}

	style := models.DefaultSubtitleStyle()
	if job.SubtitleStyle != nil {
		style = *job.SubtitleStyle
	}

	paths, err := s.media.JobPaths(jobID)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}

	var subPath string
	if style.Animated {
		subPath = filepath.Join(paths.Workspace, "subtitles.ass")
		err = os.WriteFile(subPath, []byte(RenderASS(job.SubtitleSegments, style)), 0o644)
	} else {
		subPath = filepath.Join(paths.Workspace, "subtitles.srt")
		err = os.WriteFile(subPath, []byte(RenderSRT(job.SubtitleSegments)), 0o644)
	}
	if err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("failed to write subtitle file: %w", err))
	}

	burned := filepath.Join(paths.Workspace, "burned.mp4")
	log.Printf("[Subtitles] Burning job %s (animated=%t)", jobID, style.Animated)
	if err := s.burner.BurnSubtitles(ctx, s.media.Abs(out.File), subPath, burned, ForceStyle(style)); err != nil {
		return s.fail(ctx, jobID, err)
	}

	rel, err := s.media.PublishArtifact(jobID, burned)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}
	if err := s.store.UpsertRenderOutput(ctx, &models.RenderOutput{JobID: jobID, File: rel}); err != nil {
		return s.fail(ctx, jobID, err)
	}

	os.Remove(subPath)
	os.Remove(burned)

	log.Printf("[Subtitles] Job %s burned", jobID)
	return s.store.SetJobSubtitleStatus(ctx, jobID, models.SubtitleStatusBurned, "")
}

// fail records the subtitle error state and returns the original error.
func (s *Service) fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	log.Printf("[Subtitles] Job %s failed: %v", jobID, cause)
	if err := s.store.SetJobSubtitleStatus(ctx, jobID, models.SubtitleStatusError, cause.Error()); err != nil {
		log.Printf("[Subtitles] Failed to record error for job %s: %v", jobID, err)
	}
	return cause
}
