package todo

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// UnknownDeletedAt stamps deleted tasks loaded without a deletion time. It
// sorts after every real deletion.
var UnknownDeletedAt = time.Unix(0, 0).UTC()

// Store holds the active and soft-deleted task collections.
//
// All methods are safe for concurrent use, but the store is designed for a
// single writer: callers are expected to persist after each mutation before
// issuing the next one.
type Store struct {
	mu      sync.RWMutex
	tasks   []Task
	deleted []Task
	editing int64
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		tasks:   []Task{},
		deleted: []Task{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RepairReport describes what Load had to fix in a loaded state.
type RepairReport struct {
	BackfilledCreatedAt int
	ClearedDeletedAt    int
	StampedDeletedAt    int
	DroppedDuplicates   int
}

// Changed reports whether any repair was made.
func (r RepairReport) Changed() bool {
	return r.BackfilledCreatedAt > 0 || r.ClearedDeletedAt > 0 ||
		r.StampedDeletedAt > 0 || r.DroppedDuplicates > 0
}

// Load replaces the store contents with state and repairs it:
// missing createdAt is backfilled with the current time, active tasks lose
// any stray deletedAt, deleted tasks without one get UnknownDeletedAt, and
// duplicate ids keep their first occurrence. Edit state is reset.
func (s *Store) Load(state State) RepairReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report RepairReport
	now := s.now().UTC()
	seen := make(map[int64]bool, state.Len())

	load := func(in []Task, deleted bool) []Task {
		out := make([]Task, 0, len(in))
		for _, t := range in {
			if seen[t.ID] {
				report.DroppedDuplicates++
				continue
			}
			seen[t.ID] = true
			t = t.clone()
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
				report.BackfilledCreatedAt++
			}
			switch {
			case !deleted && t.DeletedAt != nil:
				t.DeletedAt = nil
				report.ClearedDeletedAt++
			case deleted && t.DeletedAt == nil:
				stamp := UnknownDeletedAt
				t.DeletedAt = &stamp
				report.StampedDeletedAt++
			}
			out = append(out, t)
		}
		return out
	}

	s.tasks = load(state.Tasks, false)
	s.deleted = load(state.DeletedTasks, true)
	s.editing = 0
	return report
}

// Snapshot returns a deep copy of the persisted state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Tasks:        cloneTasks(s.tasks),
		DeletedTasks: cloneTasks(s.deleted),
	}
}

// Add creates a task and appends it to the active list.
func (s *Store) Add(text string, priority Priority, due *time.Time) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if !priority.Valid() {
		return Task{}, &ValidationError{Field: "priority", Err: ErrInvalidPriority}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t := Task{
		ID:        s.nextIDLocked(now),
		Text:      text,
		Completed: false,
		Priority:  priority,
		CreatedAt: now,
	}
	if due != nil {
		d := due.UTC()
		t.DueDate = &d
	}
	s.tasks = append(s.tasks, t)
	return t.clone(), nil
}

// nextIDLocked returns the creation timestamp in milliseconds, bumped past
// every id already in use.
func (s *Store) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	var max int64
	for _, t := range s.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	for _, t := range s.deleted {
		if t.ID > max {
			max = t.ID
		}
	}
	if id <= max {
		id = max + 1
	}
	return id
}

// Get returns the active task with the given id.
func (s *Store) Get(id int64) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.tasks, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionActive)
	}
	return s.tasks[i].clone(), nil
}

// GetDeleted returns the soft-deleted task with the given id.
func (s *Store) GetDeleted(id int64) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.deleted, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionDeleted)
	}
	return s.deleted[i].clone(), nil
}

// ToggleComplete flips the completed flag of an active task.
func (s *Store) ToggleComplete(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.tasks, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionActive)
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return s.tasks[i].clone(), nil
}

// Update applies the fields of p that differ from the current task and
// reports whether anything changed. It also ends edit mode on the task.
// The patch is validated before any field is applied.
func (s *Store) Update(id int64, p Patch) (bool, error) {
	var text string
	if p.Text != nil {
		text = strings.TrimSpace(*p.Text)
		if text == "" {
			return false, &ValidationError{Field: "text", Err: ErrEmptyText}
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return false, &ValidationError{Field: "priority", Err: ErrInvalidPriority}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.tasks, id)
	if i < 0 {
		return false, notFound(id, CollectionActive)
	}
	t := &s.tasks[i]
	changed := false

	if p.Text != nil && text != t.Text {
		t.Text = text
		changed = true
	}
	if p.Priority != nil && *p.Priority != t.Priority {
		t.Priority = *p.Priority
		changed = true
	}
	switch {
	case p.ClearDueDate:
		if t.DueDate != nil {
			t.DueDate = nil
			changed = true
		}
	case p.DueDate != nil:
		due := p.DueDate.UTC()
		if t.DueDate == nil || !t.DueDate.Equal(due) {
			t.DueDate = &due
			changed = true
		}
	}

	if s.editing == id {
		s.editing = 0
	}
	return changed, nil
}

// SoftDelete moves an active task to the deleted list and stamps deletedAt.
func (s *Store) SoftDelete(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.tasks, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionActive)
	}
	t := s.softDeleteLocked(i, s.now().UTC())
	return t.clone(), nil
}

func (s *Store) softDeleteLocked(i int, at time.Time) Task {
	t := s.tasks[i]
	stamp := at
	t.DeletedAt = &stamp
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.deleted = append(s.deleted, t)
	if s.editing == t.ID {
		s.editing = 0
	}
	return t
}

// Restore moves a deleted task back to the end of the active list.
func (s *Store) Restore(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.deleted, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionDeleted)
	}
	t := s.deleted[i]
	t.DeletedAt = nil
	s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
	s.tasks = append(s.tasks, t)
	return t.clone(), nil
}

// Purge permanently removes a deleted task.
func (s *Store) Purge(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.deleted, id)
	if i < 0 {
		return Task{}, notFound(id, CollectionDeleted)
	}
	t := s.deleted[i]
	s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
	return t, nil
}

// ClearCompleted soft-deletes every completed active task and returns them.
// All removed tasks share one deletedAt stamp.
func (s *Store) ClearCompleted() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var removed []Task
	for i := 0; i < len(s.tasks); {
		if !s.tasks[i].Completed {
			i++
			continue
		}
		removed = append(removed, s.softDeleteLocked(i, now).clone())
	}
	return removed
}

// CompletedCount returns how many active tasks are completed.
func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Tasks returns a copy of the active tasks in display order.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Filter returns the active tasks matching f, preserving order.
func (s *Store) Filter(f Filter) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t.clone())
		}
	}
	return out
}

// Deleted returns the deleted tasks, most recently deleted first.
// Tasks without a known deletedAt sort last; ties keep their stored order.
func (s *Store) Deleted() []Task {
	s.mu.RLock()
	out := cloneTasks(s.deleted)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return deletedKey(out[i]) > deletedKey(out[j])
	})
	return out
}

func deletedKey(t Task) int64 {
	if t.DeletedAt == nil {
		return 0
	}
	return t.DeletedAt.UnixMilli()
}

// StartEdit puts an active task in edit mode, ending any other edit.
func (s *Store) StartEdit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.tasks, id) < 0 {
		return notFound(id, CollectionActive)
	}
	s.editing = id
	return nil
}

// CancelEdit ends edit mode on the task if it is the one being edited.
func (s *Store) CancelEdit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.tasks, id) < 0 {
		return notFound(id, CollectionActive)
	}
	if s.editing == id {
		s.editing = 0
	}
	return nil
}

// Editing returns the id of the task in edit mode, if any.
func (s *Store) Editing() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing, s.editing != 0
}

// Counts summarizes the store for display.
type Counts struct {
	Total     int
	Pending   int
	Completed int
	Deleted   int
}

// Counts returns task totals.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Total: len(s.tasks), Deleted: len(s.deleted)}
	for _, t := range s.tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	return c
}

func indexOf(tasks []Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(in []Task) []Task {
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = t.clone()
	}
	return out
}
