package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores the document in a single file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the file at path. Nothing is touched
// on disk until the first Read or Write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Location returns the file path.
func (b *FileBackend) Location() string {
	return b.path
}

// Read returns the file contents.
func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Location: b.path, Err: err}
	}
	return data, nil
}

// Write replaces the file atomically: the data goes to a sibling temp file
// that is then renamed over the target. The directory is created if needed.
func (b *FileBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return &PersistenceError{Op: "write", Location: b.path, Err: fmt.Errorf("create directory: %w", err)}
	}

	f, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+"-*.tmp")
	if err != nil {
		return &PersistenceError{Op: "write", Location: b.path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return &PersistenceError{Op: "write", Location: b.path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		return fail(err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &PersistenceError{Op: "write", Location: b.path, Err: err}
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return &PersistenceError{Op: "write", Location: b.path, Err: fmt.Errorf("replace: %w", err)}
	}
	return nil
}

// Quarantine writes data to "<path>.<suffix>" and returns that path.
func (b *FileBackend) Quarantine(ctx context.Context, data []byte, suffix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := b.path + "." + suffix
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", &PersistenceError{Op: "quarantine", Location: dst, Err: err}
	}
	return dst, nil
}

// Close is a no-op.
func (b *FileBackend) Close() error {
	return nil
}
