package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/ticklist/internal/hooks"
	"github.com/nibzard/ticklist/internal/logging"
	"github.com/nibzard/ticklist/internal/todo"
)

// Persister loads and saves the whole task state.
type Persister interface {
	Load(ctx context.Context) todo.State
	Save(ctx context.Context, state todo.State) bool
	Location() string
}

type hookRunner func(ctx context.Context, opts hooks.Options) (hooks.Result, error)

// Service maps intents to store operations and persists after each change.
type Service struct {
	store     *todo.Store
	persister Persister
	logger    *log.Logger
	now       func() time.Time

	hookCommand string
	hookTimeout time.Duration
	runHook     hookRunner
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for the store.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHook runs command after every successful save. An empty command
// disables the hook.
func WithHook(command string, timeout time.Duration) Option {
	return func(s *Service) {
		s.hookCommand = command
		s.hookTimeout = timeout
	}
}

// Open loads the persisted state into a new store. When loading had to
// repair the state, the repaired state is saved right away.
func Open(ctx context.Context, p Persister, opts ...Option) (*Service, error) {
	if p == nil {
		return nil, fmt.Errorf("persister is nil")
	}
	s := &Service{
		persister: p,
		logger:    logging.Discard(),
		now:       time.Now,
		runHook:   hooks.Invoke,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = todo.NewStore(todo.WithClock(s.now))

	report := s.store.Load(p.Load(ctx))
	if report.Changed() {
		s.logger.Info("repaired task document",
			"backfilled", report.BackfilledCreatedAt,
			"cleared_deleted_at", report.ClearedDeletedAt,
			"stamped_deleted_at", report.StampedDeletedAt,
			"dropped_duplicates", report.DroppedDuplicates)
		if !s.persist(ctx) {
			s.logger.Warn("repaired state not saved", "location", p.Location())
		}
	}
	return s, nil
}

// Store returns the underlying store.
func (s *Service) Store() *todo.Store {
	return s.store
}

// Location returns where the document is persisted.
func (s *Service) Location() string {
	return s.persister.Location()
}

// Dispatch applies one intent. Store errors are returned unchanged. The
// state is saved only when the store reports a change, and the hook runs
// only after a successful save.
func (s *Service) Dispatch(ctx context.Context, in Intent) (Result, error) {
	res := Result{Action: in.Action, TaskID: in.ID}

	err := s.apply(in, &res)
	if err != nil {
		var verr *todo.ValidationError
		switch {
		case errors.Is(err, todo.ErrNotFound):
			s.logger.Debug("intent on unknown task", "action", in.Action, "id", in.ID)
		case errors.As(err, &verr):
			s.logger.Debug("intent rejected", "action", in.Action, "field", verr.Field, "err", verr.Err)
		default:
			s.logger.Error("intent failed", "action", in.Action, "err", err)
		}
		return res, err
	}
	if !res.Changed {
		return res, nil
	}

	res.Saved = s.persist(ctx)
	if res.Saved {
		s.afterSave(ctx, res)
	}
	return res, nil
}

func (s *Service) apply(in Intent, res *Result) error {
	switch in.Action {
	case ActionAdd:
		t, err := s.store.Add(in.Text, in.Priority, in.Due)
		if err != nil {
			return err
		}
		res.TaskID = t.ID
		res.Changed, res.Count = true, 1
	case ActionToggle:
		if _, err := s.store.ToggleComplete(in.ID); err != nil {
			return err
		}
		res.Changed, res.Count = true, 1
	case ActionUpdate, ActionSetPriority:
		patch := in.Patch
		if in.Action == ActionSetPriority {
			p := in.Priority
			patch = todo.Patch{Priority: &p}
		}
		changed, err := s.store.Update(in.ID, patch)
		if err != nil {
			return err
		}
		res.Changed = changed
		if changed {
			res.Count = 1
		}
	case ActionDelete:
		if _, err := s.store.SoftDelete(in.ID); err != nil {
			return err
		}
		res.Changed, res.Count = true, 1
	case ActionRestore:
		if _, err := s.store.Restore(in.ID); err != nil {
			return err
		}
		res.Changed, res.Count = true, 1
	case ActionPurge:
		if _, err := s.store.Purge(in.ID); err != nil {
			return err
		}
		res.Changed, res.Count = true, 1
	case ActionClearCompleted:
		removed := s.store.ClearCompleted()
		res.Count = len(removed)
		res.Changed = len(removed) > 0
	case ActionStartEdit:
		return s.store.StartEdit(in.ID)
	case ActionCancelEdit:
		return s.store.CancelEdit(in.ID)
	default:
		return fmt.Errorf("unknown action %q", in.Action)
	}
	return nil
}

func (s *Service) persist(ctx context.Context) bool {
	return s.persister.Save(ctx, s.store.Snapshot())
}

func (s *Service) afterSave(ctx context.Context, res Result) {
	if s.hookCommand == "" {
		return
	}
	out, err := s.runHook(ctx, hooks.Options{
		Command:  s.hookCommand,
		Action:   string(res.Action),
		TaskID:   res.TaskID,
		Location: s.persister.Location(),
		Timeout:  s.hookTimeout,
	})
	if err != nil {
		s.logger.Warn("post-save hook failed", "action", res.Action,
			"exit_code", out.ExitCode, "output", out.Output, "err", err)
		return
	}
	s.logger.Debug("post-save hook ran", "action", res.Action, "id", res.TaskID)
}
