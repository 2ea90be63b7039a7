package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"m4btools/internal/logging"
)

// Prefix names every workspace directory created by Acquire.
const Prefix = "m4b-tools-"

// Workspace is a scratch directory scoped to one operation.
type Workspace struct {
	Path string

	owned  bool
	logger *slog.Logger
	once   sync.Once
	err    error
}

// Acquire returns a workspace. When supplied is non-empty that directory is
// created if needed and handed back unowned; otherwise a fresh directory is
// created under root (os.TempDir when root is empty).
func Acquire(root, supplied string, logger *slog.Logger) (*Workspace, error) {
	logger = logging.NewComponentLogger(logger, "staging")
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		if err := os.MkdirAll(supplied, 0o755); err != nil {
			return nil, fmt.Errorf("create work directory %s: %w", supplied, err)
		}
		logger.Debug("using caller work directory", logging.String("path", supplied))
		return &Workspace{Path: supplied, logger: logger}, nil
	}
	if root = strings.TrimSpace(root); root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create work root %s: %w", root, err)
		}
	}
	dir, err := os.MkdirTemp(root, Prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	logger.Debug("created work directory", logging.String("path", dir))
	return &Workspace{Path: dir, owned: true, logger: logger}, nil
}

// Owned reports whether Release will remove the directory.
func (w *Workspace) Owned() bool {
	return w != nil && w.owned
}

// File returns the path of name inside the workspace.
func (w *Workspace) File(name string) string {
	return filepath.Join(w.Path, name)
}

// Release removes an owned workspace. It is safe to call more than once.
func (w *Workspace) Release() error {
	if w == nil || !w.owned {
		return nil
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.Path); err != nil {
			w.err = err
			logging.WarnWithContext(w.logger, "failed to remove work directory", "staging_release_failed",
				logging.String("path", w.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually or run m4b-tools clean"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	})
	return w.err
}
