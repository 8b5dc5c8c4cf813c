package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/ticklist/internal/logging"
	"github.com/nibzard/ticklist/internal/todo"
)

// Gateway loads and saves the whole task state through a Backend.
type Gateway struct {
	backend   Backend
	logger    *log.Logger
	validator *Validator
	now       func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithValidator enables schema checks on load. Violations are logged as
// warnings and never block loading.
func WithValidator(v *Validator) Option {
	return func(g *Gateway) {
		g.validator = v
	}
}

// WithClock overrides the time source used for quarantine suffixes.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway returns a gateway over backend.
func NewGateway(backend Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Location returns where the backend keeps the document.
func (g *Gateway) Location() string {
	return g.backend.Location()
}

// Close closes the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

func emptyState() todo.State {
	return todo.State{Tasks: []todo.Task{}, DeletedTasks: []todo.Task{}}
}

// Load reads the document and returns the decoded state. A missing
// document yields the empty state. Read and parse failures are logged and
// also yield the empty state; a document that cannot be parsed is copied
// aside first so the next save does not destroy it.
func (g *Gateway) Load(ctx context.Context) todo.State {
	loc := g.backend.Location()

	data, err := g.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.logger.Debug("no task document yet", "location", loc)
		} else {
			g.logger.Error("failed to read task document", "location", loc, "err", err)
		}
		return emptyState()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		g.logger.Warn("task document is empty", "location", loc)
		return emptyState()
	}

	state, from, err := decode(data)
	if err != nil {
		g.logger.Error("failed to parse task document", "location", loc, "err", err)
		g.quarantine(ctx, data)
		return emptyState()
	}
	if from < CurrentSchemaVersion {
		g.logger.Info("migrated task document", "location", loc,
			"from", from, "to", CurrentSchemaVersion)
	}

	if g.validator != nil {
		if result := g.validator.Validate(data); !result.Valid {
			for _, verr := range result.Errors {
				g.logger.Warn("task document schema violation", "location", loc, "err", verr)
			}
		}
	}

	g.logger.Debug("loaded task document", "location", loc,
		"tasks", len(state.Tasks), "deleted", len(state.DeletedTasks))
	return state
}

func (g *Gateway) quarantine(ctx context.Context, data []byte) {
	q, ok := g.backend.(Quarantiner)
	if !ok {
		return
	}
	suffix := "corrupt-" + g.now().UTC().Format("20060102T150405Z")
	dst, err := q.Quarantine(ctx, data, suffix)
	if err != nil {
		g.logger.Error("failed to preserve unreadable task document", "err", err)
		return
	}
	g.logger.Warn("preserved unreadable task document", "copy", dst)
}

// Save writes state as the current document version and reports success.
// Failures are logged.
func (g *Gateway) Save(ctx context.Context, state todo.State) bool {
	loc := g.backend.Location()

	data, err := encode(state)
	if err != nil {
		g.logger.Error("failed to encode task document", "location", loc, "err", err)
		return false
	}
	if err := g.backend.Write(ctx, data); err != nil {
		g.logger.Error("failed to save task document", "location", loc, "err", err)
		return false
	}
	g.logger.Debug("saved task document", "location", loc,
		"tasks", len(state.Tasks), "deleted", len(state.DeletedTasks))
	return true
}

// SaveTasks saves a legacy bare task list: the tasks become the active
// collection and the deleted collection is empty.
func (g *Gateway) SaveTasks(ctx context.Context, tasks []todo.Task) bool {
	return g.Save(ctx, todo.State{Tasks: tasks})
}

// Report describes the stored document without changing it.
type Report struct {
	Location string
	Exists   bool
	Version  int
	Tasks    int
	Deleted  int
	// DecodeErr is set when the document cannot be decoded.
	DecodeErr error
	Schema    *ValidationResult
}

// Healthy reports whether the document decodes and passes the schema.
func (r *Report) Healthy() bool {
	if r.DecodeErr != nil {
		return false
	}
	return r.Schema == nil || r.Schema.Valid
}

// Inspect reads and checks the document. It returns an error only when the
// backend cannot be read; a missing document is reported with Exists false.
func (g *Gateway) Inspect(ctx context.Context) (*Report, error) {
	report := &Report{Location: g.backend.Location()}

	data, err := g.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return nil, err
	}
	report.Exists = true

	state, from, err := decode(data)
	report.Version = from
	if err != nil {
		report.DecodeErr = err
	} else {
		report.Tasks = len(state.Tasks)
		report.Deleted = len(state.DeletedTasks)
	}
	if g.validator != nil && err == nil {
		report.Schema = g.validator.Validate(data)
	}
	return report, nil
}
