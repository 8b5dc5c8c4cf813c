package app

import (
	"time"

	"github.com/nibzard/ticklist/internal/todo"
)

// Action names a host-level request. The value is also passed to the
// post-save hook.
type Action string

const (
	ActionAdd            Action = "add"
	ActionToggle         Action = "toggle"
	ActionUpdate         Action = "update"
	ActionSetPriority    Action = "priority"
	ActionDelete         Action = "delete"
	ActionRestore        Action = "restore"
	ActionPurge          Action = "purge"
	ActionClearCompleted Action = "clear"
	ActionStartEdit      Action = "start-edit"
	ActionCancelEdit     Action = "cancel-edit"
)

// Intent is one request dispatched to the store.
type Intent struct {
	Action   Action
	ID       int64
	Text     string
	Priority todo.Priority
	Due      *time.Time
	Patch    todo.Patch
}

// Add requests a new task.
func Add(text string, priority todo.Priority, due *time.Time) Intent {
	return Intent{Action: ActionAdd, Text: text, Priority: priority, Due: due}
}

// Toggle flips the completed flag.
func Toggle(id int64) Intent {
	return Intent{Action: ActionToggle, ID: id}
}

// Update applies an edit and leaves edit mode.
func Update(id int64, patch todo.Patch) Intent {
	return Intent{Action: ActionUpdate, ID: id, Patch: patch}
}

// SetPriority changes only the priority.
func SetPriority(id int64, p todo.Priority) Intent {
	return Intent{Action: ActionSetPriority, ID: id, Priority: p}
}

// Delete soft-deletes an active task.
func Delete(id int64) Intent {
	return Intent{Action: ActionDelete, ID: id}
}

// Restore brings a deleted task back.
func Restore(id int64) Intent {
	return Intent{Action: ActionRestore, ID: id}
}

// Purge removes a deleted task for good.
func Purge(id int64) Intent {
	return Intent{Action: ActionPurge, ID: id}
}

// ClearCompleted soft-deletes every completed task.
func ClearCompleted() Intent {
	return Intent{Action: ActionClearCompleted}
}

// StartEdit marks a task as being edited.
func StartEdit(id int64) Intent {
	return Intent{Action: ActionStartEdit, ID: id}
}

// CancelEdit leaves edit mode without changes.
func CancelEdit(id int64) Intent {
	return Intent{Action: ActionCancelEdit, ID: id}
}

// Result reports the outcome of a dispatched intent.
type Result struct {
	Action Action
	// TaskID is the affected task, 0 for bulk actions.
	TaskID int64
	// Changed is true when the store was modified.
	Changed bool
	// Saved is true when the change was persisted.
	Saved bool
	// Count is the number of tasks affected.
	Count int
}
