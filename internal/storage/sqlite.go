package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DocumentName is the row key of the live task document.
const DocumentName = "tasks"

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// SQLiteBackend stores the document as one row of the documents table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
	name string
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistenceError{Op: "open", Location: path, Err: fmt.Errorf("create directory: %w", err)}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Location: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &PersistenceError{Op: "open", Location: path, Err: err}
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, &PersistenceError{Op: "open", Location: path, Err: err}
	}

	return &SQLiteBackend{db: db, path: path, name: DocumentName}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Location returns the database path.
func (b *SQLiteBackend) Location() string {
	return b.path
}

// Read returns the stored document body.
func (b *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = ?`, b.name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &PersistenceError{Op: "read", Location: b.path, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Location: b.path, Err: err}
	}
	return body, nil
}

// Write upserts the document row.
func (b *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	if err := b.put(ctx, b.name, data); err != nil {
		return &PersistenceError{Op: "write", Location: b.path, Err: err}
	}
	return nil
}

// Quarantine stores data under "<name>.<suffix>" and returns a location
// of the form "<path>#<row>".
func (b *SQLiteBackend) Quarantine(ctx context.Context, data []byte, suffix string) (string, error) {
	row := b.name + "." + suffix
	loc := b.path + "#" + row
	if err := b.put(ctx, row, data); err != nil {
		return "", &PersistenceError{Op: "quarantine", Location: loc, Err: err}
	}
	return loc, nil
}

func (b *SQLiteBackend) put(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
