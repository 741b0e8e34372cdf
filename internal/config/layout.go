package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SmitUplenchwar2687/httpcopy/internal/triage"
)

// ForwardDir is the archive subdirectory for replayed flows.
const ForwardDir = "forward"

// Layout is the directory tree under the data directory.
type Layout struct {
	Root    string
	Forward string
}

// Layout derives the directory tree from DataDir.
func (c Config) Layout() Layout {
	return Layout{
		Root:    c.DataDir,
		Forward: filepath.Join(c.DataDir, ForwardDir),
	}
}

// Quarantine returns the directory for category cat.
func (l Layout) Quarantine(cat triage.Category) string {
	return filepath.Join(l.Root, string(cat))
}

// Dirs lists every directory the engine writes into.
func (l Layout) Dirs() []string {
	dirs := []string{l.Forward}
	for _, c := range triage.Categories {
		dirs = append(dirs, l.Quarantine(c))
	}
	return dirs
}

// EnsureLayout creates any missing directories.
func (l Layout) EnsureLayout() error {
	for _, d := range l.Dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}
