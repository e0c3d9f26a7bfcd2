// Package workspace allocates one private directory per job and keeps the durable
// artifact directory that survives cleanup.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager owns the job and artifact roots.
type Manager struct {
	root        string
	artifactDir string
	logger      *slog.Logger
}

func NewManager(root, artifactDir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{root, artifactDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Manager{root: root, artifactDir: artifactDir, logger: logger}, nil
}

// NewJobID returns a time-ordered UUIDv7. Values are unique even within one millisecond.
func NewJobID() (uuid.UUID, error) {
	return uuid.NewV7()
}

// Workspace is a single job's directory. It is not shared between jobs.
type Workspace struct {
	JobID uuid.UUID
	Dir   string
	m     *Manager
}

// Allocate creates <root>/<jobID>. It fails if the directory already exists, so two
// jobs can never write into the same place.
func (m *Manager) Allocate(jobID uuid.UUID) (*Workspace, error) {
	dir := filepath.Join(m.root, jobID.String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("allocate workspace %s: %w", jobID, err)
	}
	m.logger.Debug("workspace.allocate", "job_id", jobID, "dir", dir)
	return &Workspace{JobID: jobID, Dir: dir, m: m}, nil
}

// Save writes data into the workspace and returns its path. name must be a bare
// file name.
func (w *Workspace) Save(name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid workspace file name %q", name)
	}
	p := filepath.Join(w.Dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return p, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release removes the workspace and everything in it.
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		w.m.logger.Warn("workspace.release_failed", "job_id", w.JobID, "dir", w.Dir, "error", err)
		return err
	}
	w.m.logger.Debug("workspace.release", "job_id", w.JobID)
	return nil
}

// PersistArtifact writes a durable copy under <artifactDir>/<jobID>/name.
func (m *Manager) PersistArtifact(jobID uuid.UUID, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	dir := filepath.Join(m.artifactDir, jobID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("persist artifact %s: %w", name, err)
	}
	return p, nil
}

// ArtifactPath is where PersistArtifact puts name for jobID.
func (m *Manager) ArtifactPath(jobID uuid.UUID, name string) string {
	return filepath.Join(m.artifactDir, jobID.String(), name)
}
