package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/spf13/afero"
)

// LocalBackend keeps the session in a file
type LocalBackend struct {
	fs   afero.Fs
	path string
}

// NewLocalBackend creates a backend for the file at path
func NewLocalBackend(fs afero.Fs, path string) *LocalBackend {
	return &LocalBackend{fs: fs, path: path}
}

func (b *LocalBackend) Type() string { return "local" }
func (b *LocalBackend) Location() string { return b.path }

// Read returns the file contents
func (b *LocalBackend) Read(_ context.Context) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	metrics.RecordArchiveOperation(b.Type(), "read", err == nil)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", b.path, err)
	}
	return data, nil
}

// Write replaces the file through a temporary file and a rename, so a
// reader never sees a half-written session.
func (b *LocalBackend) Write(_ context.Context, data []byte) error {
	err := b.write(data)
	metrics.RecordArchiveOperation(b.Type(), "write", err == nil)
	return err
}

func (b *LocalBackend) write(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, ".dupehound-session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		b.fs.Remove(tmpName)
		return fmt.Errorf("write session %s: %w", b.path, err)
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmpName)
		return fmt.Errorf("close session %s: %w", b.path, err)
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		b.fs.Remove(tmpName)
		return fmt.Errorf("rename session %s: %w", b.path, err)
	}
	return nil
}
