package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/models"
	"clipforge/internal/storage"
)

type fakeSubtitleStore struct {
	job      *models.Job
	output   *models.RenderOutput
	status   models.SubtitleStatus
	errText  string
	segments models.SegmentList
	upserted *models.RenderOutput
}

func (f *fakeSubtitleStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if f.job == nil {
		return nil, errors.New("job not found")
	}
	return f.job, nil
}

func (f *fakeSubtitleStore) GetRenderOutput(ctx context.Context, jobID uuid.UUID) (*models.RenderOutput, error) {
	if f.output == nil {
		return nil, errors.New("no output")
	}
	return f.output, nil
}

func (f *fakeSubtitleStore) SetJobSubtitleStatus(ctx context.Context, id uuid.UUID, status models.SubtitleStatus, errText string) error {
	f.status = status
	f.errText = errText
	return nil
}

func (f *fakeSubtitleStore) UpdateJobSubtitleSegments(ctx context.Context, id uuid.UUID, segments models.SegmentList) error {
	f.segments = segments
	return nil
}

func (f *fakeSubtitleStore) UpsertRenderOutput(ctx context.Context, out *models.RenderOutput) error {
	f.upserted = out
	return nil
}

type fakeSTT struct {
	segments []models.Segment
	err      error
	gotPath  string
}

func (f *fakeSTT) Transcribe(ctx context.Context, path, language string) ([]models.Segment, error) {
	f.gotPath = path
	return f.segments, f.err
}

type fakeBurner struct {
	err        error
	gotSub     string
	gotStyle   string
	gotInput   string
	wroteAfter string
}

func (f *fakeBurner) BurnSubtitles(ctx context.Context, input, subtitlePath, output, forceStyle string) error {
	f.gotInput = input
	f.gotSub = subtitlePath
	f.gotStyle = forceStyle
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(subtitlePath)
	if err != nil {
		return err
	}
	f.wroteAfter = string(data)
	return os.WriteFile(output, []byte("burned"), 0o644)
}

func testMediaStore(t *testing.T) *storage.Store {
	t.Helper()
	media, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return media
}

func TestGenerateForJobSuccess(t *testing.T) {
	jobID := uuid.New()
	store := &fakeSubtitleStore{output: &models.RenderOutput{JobID: jobID, File: "exports/job_x.mp4"}}
	stt := &fakeSTT{segments: []models.Segment{{Start: 0, End: 1, Text: "ola"}}}
	media := testMediaStore(t)

	svc := NewService(store, stt, &fakeBurner{}, media, "pt")
	require.NoError(t, svc.GenerateForJob(context.Background(), jobID))

	assert.Equal(t, models.SubtitleStatusReadyForEdit, store.status)
	assert.Empty(t, store.errText)
	assert.Len(t, store.segments, 1)
	assert.Equal(t, media.Abs("exports/job_x.mp4"), stt.gotPath)
}

func TestGenerateForJobTranscriptionFailure(t *testing.T) {
	jobID := uuid.New()
	store := &fakeSubtitleStore{output: &models.RenderOutput{JobID: jobID, File: "exports/job_x.mp4"}}
	stt := &fakeSTT{err: errors.New("whisper transcription failed: boom")}

	svc := NewService(store, stt, &fakeBurner{}, testMediaStore(t), "pt")
	err := svc.GenerateForJob(context.Background(), jobID)

	require.Error(t, err)
	assert.Equal(t, models.SubtitleStatusError, store.status)
	assert.Contains(t, store.errText, "boom")
}

func TestGenerateForJobWithoutOutput(t *testing.T) {
	store := &fakeSubtitleStore{}

	svc := NewService(store, &fakeSTT{}, &fakeBurner{}, testMediaStore(t), "pt")
	err := svc.GenerateForJob(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, models.SubtitleStatusError, store.status)
}

func TestBurnForJobUsesSRTAndReplacesArtifact(t *testing.T) {
	jobID := uuid.New()
	media := testMediaStore(t)

	// seed the current artifact
	src := filepath.Join(t.TempDir(), "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("render"), 0o644))
	rel, err := media.PublishArtifact(jobID, src)
	require.NoError(t, err)

	store := &fakeSubtitleStore{
		job: &models.Job{
			ID:               jobID,
			SubtitleSegments: models.SegmentList{{Start: 0, End: 1, Text: "fala"}},
		},
		output: &models.RenderOutput{JobID: jobID, File: rel},
	}
	burner := &fakeBurner{}

	svc := NewService(store, &fakeSTT{}, burner, media, "pt")
	require.NoError(t, svc.BurnForJob(context.Background(), jobID))

	assert.Equal(t, models.SubtitleStatusBurned, store.status)
	assert.True(t, strings.HasSuffix(burner.gotSub, "subtitles.srt"))
	assert.Contains(t, burner.wroteAfter, "fala")
	assert.Contains(t, burner.gotStyle, "FontName=Arial")

	// the artifact keeps its deterministic path and now holds the burned video
	require.NotNil(t, store.upserted)
	assert.Equal(t, rel, store.upserted.File)
	data, err := os.ReadFile(media.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "burned", string(data))
}

func TestBurnForJobAnimatedUsesASS(t *testing.T) {
	jobID := uuid.New()
	media := testMediaStore(t)

	src := filepath.Join(t.TempDir(), "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("render"), 0o644))
	rel, err := media.PublishArtifact(jobID, src)
	require.NoError(t, err)

	style := models.DefaultSubtitleStyle()
	style.Animated = true
	store := &fakeSubtitleStore{
		job: &models.Job{
			ID:            jobID,
			SubtitleStyle: &style,
			SubtitleSegments: models.SegmentList{{Start: 0, End: 1, Text: "uma fala", Words: []models.Word{
				{Start: 0, End: 0.5, Word: "uma"},
				{Start: 0.5, End: 1, Word: "fala"},
			}}},
		},
		output: &models.RenderOutput{JobID: jobID, File: rel},
	}
	burner := &fakeBurner{}

	svc := NewService(store, &fakeSTT{}, burner, media, "pt")
	require.NoError(t, svc.BurnForJob(context.Background(), jobID))

	assert.True(t, strings.HasSuffix(burner.gotSub, "subtitles.ass"))
	assert.Contains(t, burner.wroteAfter, "[Events]")
}

func TestBurnForJobWithoutSegments(t *testing.T) {
	jobID := uuid.New()
	store := &fakeSubtitleStore{
		job:    &models.Job{ID: jobID},
		output: &models.RenderOutput{JobID: jobID, File: "exports/job_x.mp4"},
	}

	svc := NewService(store, &fakeSTT{}, &fakeBurner{}, testMediaStore(t), "pt")
	err := svc.BurnForJob(context.Background(), jobID)

	require.Error(t, err)
	assert.Equal(t, models.SubtitleStatusError, store.status)
	assert.Contains(t, store.errText, "no subtitle segments")
}

func TestBurnForJobEncoderFailure(t *testing.T) {
	jobID := uuid.New()
	media := testMediaStore(t)
	store := &fakeSubtitleStore{
		job: &models.Job{
			ID:               jobID,
			SubtitleSegments: models.SegmentList{{Start: 0, End: 1, Text: "fala"}},
		},
		output: &models.RenderOutput{JobID: jobID, File: "exports/job_x.mp4"},
	}

	svc := NewService(store, &fakeSTT{}, &fakeBurner{err: errors.New("burn failed: bad input")}, media, "pt")
	err := svc.BurnForJob(context.Background(), jobID)

	require.Error(t, err)
	assert.Equal(t, models.SubtitleStatusError, store.status)
	assert.Nil(t, store.upserted)
}
