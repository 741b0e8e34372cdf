// Package triage moves rejected capture files into quarantine directories.
package triage

import (
	"fmt"
	"path/filepath"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/fsmove"
)

// Category names a quarantine directory.
type Category string

const (
	// InvalidServer holds well-formed files for a different endpoint.
	InvalidServer Category = "invalid_server"
	// InvalidOneWay holds settled files whose peer never appeared.
	InvalidOneWay Category = "invalid_oneway"
	// Invalid holds pairs that failed framing classification.
	Invalid Category = "invalid"
	// InvalidURL holds pairs filtered out by the path prefix.
	InvalidURL Category = "invalid_url"
)

// Categories lists every quarantine category.
var Categories = []Category{InvalidServer, InvalidOneWay, Invalid, InvalidURL}

// Sink relocates files under root/<category>/ keeping their base name.
type Sink struct {
	root string
}

// NewSink creates a sink rooted at the data directory.
func NewSink(root string) *Sink {
	return &Sink{root: root}
}

// Dir returns the directory for category c.
func (s *Sink) Dir(c Category) string {
	return filepath.Join(s.root, string(c))
}

// Quarantine renames f into category c and returns the new path. An
// existing file of the same name is never overwritten; the move fails with
// fsmove.ErrExists and f stays where it is.
func (s *Sink) Quarantine(f capture.File, c Category) (string, error) {
	dest := filepath.Join(s.Dir(c), f.Base())
	if err := fsmove.Rename(f.Path, dest); err != nil {
		return "", fmt.Errorf("quarantine %s as %s: %w", f.Base(), c, err)
	}
	return dest, nil
}
