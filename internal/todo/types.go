package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority represents a task priority. The zero value means no priority.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the selectable priorities in cycling order.
var Priorities = []Priority{PriorityNone, PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority parses user input into a Priority.
// Empty input, "none" and "-" select no priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "-":
		return PriorityNone, nil
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	default:
		return PriorityNone, &ValidationError{
			Field: "priority",
			Err:   fmt.Errorf("%w: %q", ErrInvalidPriority, s),
		}
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Next returns the priority that follows p in cycling order.
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityNone
}

// Label returns a human-readable label.
func (p Priority) Label() string {
	switch p {
	case PriorityNone:
		return "no priority"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return string(p)
	}
}

// MarshalJSON encodes PriorityNone as null.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null, "" or a priority name. Unknown names are kept
// verbatim so a hand-edited file survives a load/save cycle.
func (p *Priority) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = PriorityNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	*p = Priority(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// Task is a single task. Edit state is tracked by the Store, not here.
type Task struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority"`
	CreatedAt time.Time  `json:"createdAt,omitzero"`
	DueDate   *time.Time `json:"dueDate"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == 0
}

// HasDueDate reports whether the task carries a due date.
func (t *Task) HasDueDate() bool {
	return t.DueDate != nil
}

// DeletionKnown reports whether the task carries a real deletion time.
func (t *Task) DeletionKnown() bool {
	return t.DeletedAt != nil && !t.DeletedAt.Equal(UnknownDeletedAt)
}

// clone returns a copy that shares no pointers with t.
func (t Task) clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.DeletedAt != nil {
		deleted := *t.DeletedAt
		t.DeletedAt = &deleted
	}
	return t
}

// State is the full persisted store state.
type State struct {
	Tasks        []Task `json:"tasks"`
	DeletedTasks []Task `json:"deletedTasks"`
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (s *State) Normalize() {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.DeletedTasks == nil {
		s.DeletedTasks = []Task{}
	}
}

// Len returns the number of tasks in both collections.
func (s State) Len() int {
	return len(s.Tasks) + len(s.DeletedTasks)
}

// Patch describes an edit. Nil fields are left unchanged.
type Patch struct {
	Text     *string
	Priority *Priority
	DueDate  *time.Time
	// ClearDueDate removes the due date; it wins over DueDate.
	ClearDueDate bool
}

// IsEmpty reports whether the patch names no field at all.
func (p Patch) IsEmpty() bool {
	return p.Text == nil && p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}
