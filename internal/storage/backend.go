package storage

import (
	"context"
	"fmt"
	"strings"
)

// Backend reads and writes one raw task document.
//
// Read returns an error wrapping fs.ErrNotExist when no document has been
// written yet.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Location() string
	Close() error
}

// Quarantiner is implemented by backends that can keep a copy of an
// unreadable document next to the live one.
type Quarantiner interface {
	Quarantine(ctx context.Context, data []byte, suffix string) (string, error)
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the named backend rooted at path.
func Open(ctx context.Context, kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendFile:
		return NewFileBackend(path), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
