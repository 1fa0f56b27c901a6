package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/models"
	"clipforge/internal/storage"
)

// ValidationError rejects a job before any subprocess is spawned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Store is the persistence surface the pipeline drives job state through.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetJobClipRefs(ctx context.Context, id uuid.UUID) ([]models.ClipRef, error)
	GetBrandAsset(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error)
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	MarkJobDone(ctx context.Context, id uuid.UUID) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, errText string) error
	UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error
	AppendJobLog(ctx context.Context, id uuid.UUID, line string) error
	UpsertRenderOutput(ctx context.Context, out *models.RenderOutput) error
}

// Prober answers capability questions before encoding starts.
type Prober interface {
	SupportsHardwareEncode(ctx context.Context) bool
}

// Encoder is the media command surface the pipeline renders through.
type Encoder interface {
	CutClip(ctx context.Context, input, startTC, endTC, output string, hw bool) error
	ReframeVertical(ctx context.Context, input, output string, hw bool) error
	NormalizeForConcat(ctx context.Context, input, output string, hw, vertical bool) error
	ConcatCopy(ctx context.Context, parts []string, output, workdir string) error
	ConcatWithTransition(ctx context.Context, parts []string, output string, kind models.Transition, durationSec float64, hw bool) error
}

// Pipeline renders one job end to end: cut, reframe, normalize, concat,
// publish. Job status, progress and the run log are persisted as it goes so
// the API can stream them to polling clients.
type Pipeline struct {
	store Store
	enc   Encoder
	probe Prober
	media *storage.Store
}

func New(store Store, enc Encoder, probe Prober, media *storage.Store) *Pipeline {
	return &Pipeline{store: store, enc: enc, probe: probe, media: media}
}

// Run executes the render for jobID. Validation failures surface before the
// job leaves QUEUED; any failure after that marks the job FAILED with the
// error text recorded verbatim. Workspace intermediates are removed only on
// success so a failed run can be inspected.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	clips, err := p.store.GetJobClipRefs(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load clips for job %s: %w", jobID, err)
	}

	if len(clips) == 0 {
		return &ValidationError{Msg: "job needs at least 1 clip"}
	}
	if !job.Transition.Valid() {
		return &ValidationError{Msg: fmt.Sprintf("unknown transition %q", job.Transition)}
	}
	if job.Transition != models.TransitionNone && job.TransitionDuration < 0 {
		return &ValidationError{Msg: "transition duration must not be negative"}
	}

	if err := p.store.MarkJobRunning(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", jobID, err)
	}

	if err := p.render(ctx, job, clips); err != nil {
		if ferr := p.store.MarkJobFailed(ctx, jobID, err.Error()); ferr != nil {
			log.Printf("[Pipeline] Failed to record failure for job %s: %v", jobID, ferr)
		}
		p.logf(ctx, jobID, "[ERROR] %v", err)
		return err
	}
	return nil
}

func (p *Pipeline) render(ctx context.Context, job *models.Job, clips []models.ClipRef) error {
	hw := p.probe.SupportsHardwareEncode(ctx)
	vertical := job.Orientation == models.OrientationVertical

	paths, err := p.media.JobPaths(job.ID)
	if err != nil {
		return err
	}

	p.logf(ctx, job.ID, "orientation=%s", job.Orientation)
	if hw {
		p.logf(ctx, job.ID, "GPU NVENC: ON")
	} else {
		p.logf(ctx, job.ID, "GPU NVENC: OFF (CPU)")
	}

	// [1/4] Cut clips in parallel; progress updates are monotonic in the
	// store, so completion order does not matter.
	cutPaths := make([]string, len(clips))
	var cutsDone int32
	g, gctx := errgroup.WithContext(ctx)
	for i, clip := range clips {
		i, clip := i, clip
		g.Go(func() error {
			p.logf(ctx, job.ID, "[1/4] Cutting %d/%d: %s -> %s", i+1, len(clips), clip.StartTC, clip.EndTC)
			out := filepath.Join(paths.Workspace, fmt.Sprintf("cut_%s_%d.mp4", clip.CutID, i))
			if err := p.enc.CutClip(gctx, p.media.Abs(clip.Path), clip.StartTC, clip.EndTC, out, hw); err != nil {
				return err
			}
			cutPaths[i] = out
			done := atomic.AddInt32(&cutsDone, 1)
			p.setProgress(ctx, job.ID, 10+int(25*int(done)/len(clips)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.setProgress(ctx, job.ID, 35)

	// [2/4] Reframe to 9:16 when the job is vertical.
	mainPaths := cutPaths
	if vertical {
		mainPaths = make([]string, len(cutPaths))
		for i, cutPath := range cutPaths {
			out := filepath.Join(paths.Workspace, fmt.Sprintf("cut_%s_%d_9x16.mp4", clips[i].CutID, i))
			if err := p.enc.ReframeVertical(ctx, cutPath, out, hw); err != nil {
				return err
			}
			mainPaths[i] = out
		}
		p.logf(ctx, job.ID, "[2/4] Vertical 9:16 (blur bg)")
	}
	p.setProgress(ctx, job.ID, 60)

	// [3/4] Assemble intro + clips + outro, normalize each part, concat.
	parts, err := p.assembleParts(ctx, job, mainPaths)
	if err != nil {
		return err
	}

	if vertical {
		p.logf(ctx, job.ID, "Output format: vertical 9:16")
	} else {
		p.logf(ctx, job.ID, "Output format: horizontal 16:9")
	}
	p.logf(ctx, job.ID, "[3/4] Normalize + concat parts=%d", len(parts))
	p.setProgress(ctx, job.ID, 70)

	normalized := make([]string, len(parts))
	g, gctx = errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			out := filepath.Join(paths.Workspace, fmt.Sprintf("part_%d.mp4", i))
			if err := p.enc.NormalizeForConcat(gctx, part, out, hw, vertical); err != nil {
				return err
			}
			normalized[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.setProgress(ctx, job.ID, 85)

	exportTmp := filepath.Join(paths.Exports, storage.ArtifactName(job.ID))
	useTransition := job.Transition != models.TransitionNone && len(normalized) >= 2
	if useTransition {
		dur := job.TransitionDuration
		if dur == 0 {
			dur = 0.5
		}
		p.logf(ctx, job.ID, "Concat with xfade: %s (%gs)", job.Transition, dur)
		if err := p.enc.ConcatWithTransition(ctx, normalized, exportTmp, job.Transition, dur, hw); err != nil {
			return err
		}
	} else {
		if err := p.enc.ConcatCopy(ctx, normalized, exportTmp, paths.Workspace); err != nil {
			return err
		}
	}

	// [4/4] Publish into the stable exports location, then clean up.
	p.logf(ctx, job.ID, "[4/4] Save output")
	p.setProgress(ctx, job.ID, 95)

	rel, err := p.media.PublishArtifact(job.ID, exportTmp)
	if err != nil {
		return err
	}
	if err := p.store.UpsertRenderOutput(ctx, &models.RenderOutput{JobID: job.ID, File: rel}); err != nil {
		return err
	}

	if err := p.media.RemoveJobDir(job.ID); err != nil {
		p.logf(ctx, job.ID, "[WARN] Could not remove temp dir: %v", err)
	} else {
		p.logf(ctx, job.ID, "[4/4] Temp files removed")
	}

	p.setProgress(ctx, job.ID, 100)
	if err := p.store.MarkJobDone(ctx, job.ID); err != nil {
		return err
	}
	p.logf(ctx, job.ID, "[DONE] %s", rel)
	return nil
}

// assembleParts resolves the ordered render inputs: intro asset (if set),
// the cut clips, then the outro asset (if set).
func (p *Pipeline) assembleParts(ctx context.Context, job *models.Job, mainPaths []string) ([]string, error) {
	var parts []string
	if job.IntroAssetID != nil {
		asset, err := p.store.GetBrandAsset(ctx, *job.IntroAssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load intro asset: %w", err)
		}
		parts = append(parts, p.media.Abs(asset.File))
	}
	parts = append(parts, mainPaths...)
	if job.OutroAssetID != nil {
		asset, err := p.store.GetBrandAsset(ctx, *job.OutroAssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load outro asset: %w", err)
		}
		parts = append(parts, p.media.Abs(asset.File))
	}
	return parts, nil
}

func (p *Pipeline) logf(ctx context.Context, jobID uuid.UUID, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Printf("[Pipeline] Job %s: %s", jobID, line)
	if err := p.store.AppendJobLog(ctx, jobID, line); err != nil {
		log.Printf("[Pipeline] Failed to append log for job %s: %v", jobID, err)
	}
}

func (p *Pipeline) setProgress(ctx context.Context, jobID uuid.UUID, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if err := p.store.UpdateJobProgress(ctx, jobID, progress); err != nil {
		log.Printf("[Pipeline] Failed to update progress for job %s: %v", jobID, err)
	}
}
