package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestJobPathsCreatesDirectories(t *testing.T) {
	s := newTestStore(t)
	jobID := uuid.New()

	paths, err := s.JobPaths(jobID)
	require.NoError(t, err)

	for _, dir := range []string{paths.Workspace, paths.Exports} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(s.Root(), "jobs", jobID.String()), paths.Base)
}

func TestPublishArtifactReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	jobID := uuid.New()

	src := filepath.Join(t.TempDir(), "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("first"), 0o644))

	rel, err := s.PublishArtifact(jobID, src)
	require.NoError(t, err)
	assert.Equal(t, "exports/job_"+jobID.String()+".mp4", rel)

	// re-publishing overwrites the same path
	require.NoError(t, os.WriteFile(src, []byte("second"), 0o644))
	rel2, err := s.PublishArtifact(jobID, src)
	require.NoError(t, err)
	assert.Equal(t, rel, rel2)

	data, err := os.ReadFile(s.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestPublishArtifactMissingSource(t *testing.T) {
	s := newTestStore(t)

	_, err := s.PublishArtifact(uuid.New(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.Error(t, err)
}

func TestSaveUpload(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.SaveUpload("sources", "My Clip (final).mp4", strings.NewReader("video bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "sources/"))
	assert.True(t, strings.HasSuffix(rel, "_My_Clip__final_.mp4"))

	data, err := os.ReadFile(s.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
}

func TestSaveUploadStripsPathComponents(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.SaveUpload("sources", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "sources/"))
	assert.NotContains(t, rel, "..")
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	rel, err := s.SaveUpload("sources", "a.mp4", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(rel))
	_, statErr := os.Stat(s.Abs(rel))
	assert.True(t, os.IsNotExist(statErr))

	// missing files and empty paths are not errors
	assert.NoError(t, s.Remove(rel))
	assert.NoError(t, s.Remove(""))
}

func TestRemoveJobDir(t *testing.T) {
	s := newTestStore(t)
	jobID := uuid.New()
	paths, err := s.JobPaths(jobID)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.Workspace, "cut_0.mp4"), []byte("x"), 0o644))

	require.NoError(t, s.RemoveJobDir(jobID))
	_, statErr := os.Stat(paths.Base)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "clip.mp4", sanitizeFilename("clip.mp4"))
	assert.Equal(t, "a_b_c.mp4", sanitizeFilename("a b&c.mp4"))
	assert.Equal(t, "file", sanitizeFilename(""))
}
