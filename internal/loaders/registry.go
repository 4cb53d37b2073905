// Package loaders selects a file loader by extension and validates
// files before ingestion.
package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Registry maps file extensions to loaders.
type Registry struct {
	byExt map[string]driven.Loader
}

// NewRegistry creates a registry with the given loaders. A later loader
// claiming an already-registered extension wins.
func NewRegistry(loaders ...driven.Loader) *Registry {
	r := &Registry{byExt: make(map[string]driven.Loader)}
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			r.byExt[strings.ToLower(ext)] = l
		}
	}
	return r
}

// ForPath returns the loader for a file path's extension.
// Returns domain.ErrUnsupportedFormat when no loader is registered.
func (r *Registry) ForPath(path string) (driven.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return l, nil
}

// Extensions returns every registered extension.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// Validate checks the ingestion preconditions: the file exists, is a
// regular file, does not exceed maxSize bytes, and has a recognised
// extension. Violations are reported as typed errors, never silently
// skipped.
func (r *Registry) Validate(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: file does not exist: %s", domain.ErrInvalidInput, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file: %s", domain.ErrInvalidInput, path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, info.Size(), maxSize)
	}
	if _, err := r.ForPath(path); err != nil {
		return err
	}
	return nil
}
