package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store manages the on-disk media layout under a single root: uploaded
// sources and brand assets, per-job workspaces, and the stable exports
// directory holding each job's one live artifact. All returned paths are
// root-relative with forward slashes, which is what gets persisted; Abs
// resolves them for subprocess use.
type Store struct {
	root string
}

// New creates the store, making the root directory if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute media root.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a root-relative path to an absolute one.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// JobPaths holds the absolute per-job directories.
type JobPaths struct {
	Base      string
	Workspace string
	Exports   string
}

// JobPaths creates (if needed) and returns the working directories for a job.
// Workspace holds intermediates, Exports staging output before publication.
func (s *Store) JobPaths(jobID uuid.UUID) (JobPaths, error) {
	base := filepath.Join(s.root, "jobs", jobID.String())
	paths := JobPaths{
		Base:      base,
		Workspace: filepath.Join(base, "workspace"),
		Exports:   filepath.Join(base, "exports"),
	}
	for _, dir := range []string{paths.Workspace, paths.Exports} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return JobPaths{}, fmt.Errorf("failed to create job directory %s: %w", dir, err)
		}
	}
	return paths, nil
}

// ArtifactName returns the deterministic export filename for a job, so
// re-renders and subtitle burns replace the previous artifact instead of
// accumulating.
func ArtifactName(jobID uuid.UUID) string {
	return fmt.Sprintf("job_%s.mp4", jobID)
}

// PublishArtifact moves a finished render from its staging path into the
// stable exports location and returns the root-relative artifact path.
// The copy goes through a temp file so readers never observe a partial write.
func (s *Store) PublishArtifact(jobID uuid.UUID, srcPath string) (string, error) {
	exportsDir := filepath.Join(s.root, "exports")
	if err := os.MkdirAll(exportsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create exports dir: %w", err)
	}

	dst := filepath.Join(exportsDir, ArtifactName(jobID))
	tmp := dst + ".tmp"
	if err := copyFile(srcPath, tmp); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}
	return "exports/" + ArtifactName(jobID), nil
}

// SaveUpload streams an uploaded file into subdir under the root, prefixing
// the sanitized filename with a short random token to avoid collisions.
// Returns the root-relative path.
func (s *Store) SaveUpload(subdir, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s", uuid.New().String()[:8], sanitizeFilename(filename))
	dst := filepath.Join(dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// Remove deletes a stored file by its root-relative path. Missing files are
// not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(s.Abs(rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveJobDir deletes a job's entire working tree.
func (s *Store) RemoveJobDir(jobID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.root, "jobs", jobID.String()))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}

// sanitizeFilename strips path components and replaces characters that are
// awkward in shell arguments and URLs.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
