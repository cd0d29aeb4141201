// Package workspace manages the llmcron data directory.
// The workspace is the root directory where llmcron stores its state:
// the task file (tasks.jsonl) and the credentials file (credentials.json).
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkotenko/llmcron/internal/config"
)

// Workspace represents the data directory with path management.
type Workspace struct {
	path     string // expanded path
	basePath string // original path from config (may contain ~)
}

// New creates a Workspace from the given configuration. The path from
// config is stored as-is in basePath and expanded in path.
func New(cfg config.WorkspaceConfig) *Workspace {
	return &Workspace{
		path:     expandHome(cfg.Path),
		basePath: cfg.Path,
	}
}

// Path returns the expanded workspace path.
func (w *Workspace) Path() string {
	return w.path
}

// BasePath returns the original path from config (may contain ~).
func (w *Workspace) BasePath() string {
	return w.basePath
}

// EnsureDir creates the workspace directory if it doesn't exist.
func (w *Workspace) EnsureDir() error {
	if w.path == "" {
		return fmt.Errorf("workspace path is empty")
	}

	info, err := os.Stat(w.path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("workspace path exists but is not a directory: %s", w.path)
		}
		return nil
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access workspace path %s: %w", w.path, err)
	}

	if err := os.MkdirAll(w.path, 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory %s: %w", w.path, err)
	}

	return nil
}

// Subpath returns a path inside the workspace.
func (w *Workspace) Subpath(name string) string {
	return filepath.Join(w.path, name)
}

// expandHome expands ~ to the user's home directory. If the path
// doesn't start with ~/, it's returned unchanged.
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' && (len(path) == 1 || path[1] == '/') {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
