package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/models"
	"clipforge/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	job      *models.Job
	clips    []models.ClipRef
	assets   map[uuid.UUID]*models.BrandAsset
	status   models.JobStatus
	errText  string
	progress int
	logLines []string
	output   *models.RenderOutput
}

func (f *fakeStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return f.job, nil
}

func (f *fakeStore) GetJobClipRefs(ctx context.Context, id uuid.UUID) ([]models.ClipRef, error) {
	return f.clips, nil
}

func (f *fakeStore) GetBrandAsset(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error) {
	if a, ok := f.assets[id]; ok {
		return a, nil
	}
	return nil, errors.New("asset not found")
}

func (f *fakeStore) MarkJobRunning(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = models.JobStatusRunning
	f.errText = ""
	f.progress = 0
	return nil
}

func (f *fakeStore) MarkJobDone(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = models.JobStatusDone
	return nil
}

func (f *fakeStore) MarkJobFailed(ctx context.Context, id uuid.UUID, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = models.JobStatusFailed
	f.errText = errText
	return nil
}

func (f *fakeStore) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if progress > f.progress {
		f.progress = progress
	}
	return nil
}

func (f *fakeStore) AppendJobLog(ctx context.Context, id uuid.UUID, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logLines = append(f.logLines, line)
	return nil
}

func (f *fakeStore) UpsertRenderOutput(ctx context.Context, out *models.RenderOutput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output = out
	return nil
}

type fakeProber struct{ hw bool }

func (f *fakeProber) SupportsHardwareEncode(ctx context.Context) bool { return f.hw }

// fakeEncoder writes a marker file for every output so the publish step has
// real bytes to copy. failOp makes the named operation fail.
type fakeEncoder struct {
	mu     sync.Mutex
	calls  []string
	failOp string
}

func (f *fakeEncoder) record(op, output string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
	if op == f.failOp {
		return fmt.Errorf("%s failed: simulated stderr", op)
	}
	return os.WriteFile(output, []byte(op), 0o644)
}

func (f *fakeEncoder) CutClip(ctx context.Context, input, startTC, endTC, output string, hw bool) error {
	return f.record("cut", output)
}

func (f *fakeEncoder) ReframeVertical(ctx context.Context, input, output string, hw bool) error {
	return f.record("reframe", output)
}

func (f *fakeEncoder) NormalizeForConcat(ctx context.Context, input, output string, hw, vertical bool) error {
	return f.record("normalize", output)
}

func (f *fakeEncoder) ConcatCopy(ctx context.Context, parts []string, output, workdir string) error {
	return f.record("concat_copy", output)
}

func (f *fakeEncoder) ConcatWithTransition(ctx context.Context, parts []string, output string, kind models.Transition, durationSec float64, hw bool) error {
	return f.record("concat_xfade", output)
}

func (f *fakeEncoder) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func testJob(orientation models.Orientation, transition models.Transition) *models.Job {
	return &models.Job{
		ID:          uuid.New(),
		Name:        "test job",
		Orientation: orientation,
		Transition:  transition,
		Status:      models.JobStatusQueued,
	}
}

func testClips(n int) []models.ClipRef {
	clips := make([]models.ClipRef, n)
	for i := range clips {
		clips[i] = models.ClipRef{
			CutID:   uuid.New(),
			Path:    fmt.Sprintf("sources/source_%d.mp4", i),
			StartTC: "00:00:01",
			EndTC:   "00:00:05",
		}
	}
	return clips
}

func newTestPipeline(t *testing.T, store *fakeStore, enc *fakeEncoder, hw bool) (*Pipeline, *storage.Store) {
	t.Helper()
	media, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return New(store, enc, &fakeProber{hw: hw}, media), media
}

func TestRunRejectsJobWithoutClips(t *testing.T) {
	store := &fakeStore{job: testJob(models.OrientationVertical, models.TransitionNone)}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, false)

	err := p.Run(context.Background(), store.job.ID)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	// fails fast: no status change, no subprocess
	assert.Equal(t, models.JobStatus(""), store.status)
	assert.Empty(t, enc.calls)
}

func TestRunRejectsUnknownTransition(t *testing.T) {
	job := testJob(models.OrientationVertical, models.Transition("swirl"))
	store := &fakeStore{job: job, clips: testClips(1)}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, false)

	err := p.Run(context.Background(), job.ID)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, enc.calls)
}

func TestRunVerticalSuccess(t *testing.T) {
	job := testJob(models.OrientationVertical, models.TransitionNone)
	store := &fakeStore{job: job, clips: testClips(2)}
	enc := &fakeEncoder{}
	p, media := newTestPipeline(t, store, enc, false)

	require.NoError(t, p.Run(context.Background(), job.ID))

	assert.Equal(t, models.JobStatusDone, store.status)
	assert.Equal(t, 100, store.progress)
	assert.Empty(t, store.errText)

	assert.Equal(t, 2, enc.count("cut"))
	assert.Equal(t, 2, enc.count("reframe"))
	assert.Equal(t, 2, enc.count("normalize"))
	assert.Equal(t, 1, enc.count("concat_copy"))
	assert.Equal(t, 0, enc.count("concat_xfade"))

	// artifact published at the deterministic path
	require.NotNil(t, store.output)
	assert.Equal(t, "exports/"+storage.ArtifactName(job.ID), store.output.File)
	_, err := os.Stat(media.Abs(store.output.File))
	assert.NoError(t, err)

	// workspace removed on success
	_, err = os.Stat(filepath.Join(media.Root(), "jobs", job.ID.String()))
	assert.True(t, os.IsNotExist(err))

	logText := strings.Join(store.logLines, "\n")
	assert.Contains(t, logText, "[DONE] "+store.output.File)
	assert.Contains(t, logText, "[4/4] Temp files removed")
}

func TestRunHorizontalSkipsReframe(t *testing.T) {
	job := testJob(models.OrientationHorizontal, models.TransitionNone)
	store := &fakeStore{job: job, clips: testClips(1)}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, true)

	require.NoError(t, p.Run(context.Background(), job.ID))

	assert.Equal(t, 0, enc.count("reframe"))
	assert.Contains(t, strings.Join(store.logLines, "\n"), "GPU NVENC: ON")
}

func TestRunWithTransitionUsesXfade(t *testing.T) {
	job := testJob(models.OrientationVertical, models.TransitionFade)
	job.TransitionDuration = 1.0
	store := &fakeStore{job: job, clips: testClips(2)}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, false)

	require.NoError(t, p.Run(context.Background(), job.ID))

	assert.Equal(t, 1, enc.count("concat_xfade"))
	assert.Equal(t, 0, enc.count("concat_copy"))
	assert.Contains(t, strings.Join(store.logLines, "\n"), "Concat with xfade: fade (1s)")
}

func TestRunSinglePartTransitionFallsBackToCopy(t *testing.T) {
	job := testJob(models.OrientationHorizontal, models.TransitionFade)
	store := &fakeStore{job: job, clips: testClips(1)}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, false)

	require.NoError(t, p.Run(context.Background(), job.ID))

	assert.Equal(t, 1, enc.count("concat_copy"))
	assert.Equal(t, 0, enc.count("concat_xfade"))
}

func TestRunIncludesIntroAndOutro(t *testing.T) {
	job := testJob(models.OrientationHorizontal, models.TransitionNone)
	introID, outroID := uuid.New(), uuid.New()
	job.IntroAssetID = &introID
	job.OutroAssetID = &outroID
	store := &fakeStore{
		job:   job,
		clips: testClips(1),
		assets: map[uuid.UUID]*models.BrandAsset{
			introID: {ID: introID, File: "brand/intro.mp4"},
			outroID: {ID: outroID, File: "brand/outro.mp4"},
		},
	}
	enc := &fakeEncoder{}
	p, _ := newTestPipeline(t, store, enc, false)

	require.NoError(t, p.Run(context.Background(), job.ID))

	// intro + clip + outro all normalized
	assert.Equal(t, 3, enc.count("normalize"))
	assert.Contains(t, strings.Join(store.logLines, "\n"), "[3/4] Normalize + concat parts=3")
}

func TestRunFailureMarksJobFailed(t *testing.T) {
	job := testJob(models.OrientationVertical, models.TransitionNone)
	store := &fakeStore{job: job, clips: testClips(2)}
	enc := &fakeEncoder{failOp: "normalize"}
	p, media := newTestPipeline(t, store, enc, false)

	err := p.Run(context.Background(), job.ID)
	require.Error(t, err)

	assert.Equal(t, models.JobStatusFailed, store.status)
	assert.Contains(t, store.errText, "normalize failed")
	assert.Nil(t, store.output)
	assert.Contains(t, strings.Join(store.logLines, "\n"), "[ERROR]")

	// intermediates kept for inspection on failure
	_, statErr := os.Stat(filepath.Join(media.Root(), "jobs", job.ID.String(), "workspace"))
	assert.NoError(t, statErr)
}

func TestRunCutFailureStopsBeforeConcat(t *testing.T) {
	job := testJob(models.OrientationVertical, models.TransitionNone)
	store := &fakeStore{job: job, clips: testClips(3)}
	enc := &fakeEncoder{failOp: "cut"}
	p, _ := newTestPipeline(t, store, enc, false)

	err := p.Run(context.Background(), job.ID)
	require.Error(t, err)

	assert.Equal(t, models.JobStatusFailed, store.status)
	assert.Equal(t, 0, enc.count("normalize"))
	assert.Equal(t, 0, enc.count("concat_copy"))
}
