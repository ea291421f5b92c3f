// Package workspace manages the run-scoped local temporary directory that
// holds the cloned repository and generated proxy configuration. It is
// created at startup and removed unconditionally on process exit, whether
// the run succeeded, failed, or was interrupted.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const workspaceMode = 0o700

// Workspace is a uniquely-named temporary directory for one run.
type Workspace struct {
	Root string

	log *logger.Logger
}

// New creates a fresh workspace under the system temp directory. The uuid
// suffix keeps concurrent or aborted runs from colliding.
func New(log *logger.Logger) (*Workspace, error) {
	root := filepath.Join(os.TempDir(), "deckhand-"+uuid.NewString())
	if err := os.MkdirAll(root, workspaceMode); err != nil {
		return nil, fmt.Errorf("failed to create workspace %q: %w", root, err)
	}
	return &Workspace{Root: root, log: log}, nil
}

// CloneDir returns the working directory the repository is fetched into.
func (w *Workspace) CloneDir(project string) string {
	return filepath.Join(w.Root, project)
}

// RenderPath returns a path inside the workspace for a generated file,
// such as the proxy site definition before upload.
func (w *Workspace) RenderPath(name string) string {
	return filepath.Join(w.Root, name)
}

// Cleanup removes the workspace tree. Safe to call more than once.
func (w *Workspace) Cleanup() {
	if w.Root == "" {
		return
	}
	if err := os.RemoveAll(w.Root); err != nil {
		w.log.Warnf("Failed to remove workspace %q: %v", w.Root, err)
		return
	}
	w.log.Debugf("Removed workspace %s", w.Root)
}
