package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/loaders/markdown"
	"github.com/agrichat/agrichat/internal/loaders/plaintext"
)

func TestRegistry_ForPath(t *testing.T) {
	registry := NewRegistry(plaintext.New(), markdown.New())

	loader, err := registry.ForPath("/data/loans.txt")
	require.NoError(t, err)
	assert.NotNil(t, loader)

	// Extension matching is case-insensitive.
	_, err = registry.ForPath("/data/LOANS.TXT")
	assert.NoError(t, err)

	_, err = registry.ForPath("/data/loans.docx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = registry.ForPath("/data/noextension")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistry_Extensions(t *testing.T) {
	registry := NewRegistry(plaintext.New(), markdown.New())

	exts := registry.Extensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".md")
}

func TestRegistry_Validate(t *testing.T) {
	registry := NewRegistry(plaintext.New())
	dir := t.TempDir()

	path := filepath.Join(dir, "loans.txt")
	require.NoError(t, os.WriteFile(path, []byte("農地貸款年息1.5%。"), 0o644))

	assert.NoError(t, registry.Validate(path, 0))
	assert.NoError(t, registry.Validate(path, 1024))

	// Size limit violations are typed.
	err := registry.Validate(path, 1)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	// Missing files and directories are invalid input.
	err = registry.Validate(filepath.Join(dir, "missing.txt"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = registry.Validate(dir, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// A real file with an unregistered extension.
	odd := filepath.Join(dir, "loans.docx")
	require.NoError(t, os.WriteFile(odd, []byte("x"), 0o644))
	err = registry.Validate(odd, 0)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
