package todo

import "time"

// DueState classifies a task's due date relative to now.
type DueState int

const (
	// DueNone means the task has no due date.
	DueNone DueState = iota
	// DueScheduled means the due date is on another day and not overdue.
	DueScheduled
	// DueToday means the due date falls on the current calendar day.
	DueToday
	// DueOverdue means the due date has passed on an incomplete task.
	DueOverdue
)

func (s DueState) String() string {
	switch s {
	case DueScheduled:
		return "upcoming"
	case DueToday:
		return "today"
	case DueOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// DueStatus classifies t against now. Calendar days are taken in now's
// location. Overdue wins over today; completed tasks are never overdue.
func DueStatus(t Task, now time.Time) DueState {
	if t.DueDate == nil {
		return DueNone
	}
	due := *t.DueDate
	if !t.Completed && due.Before(now) {
		return DueOverdue
	}
	if SameDay(due, now) {
		return DueToday
	}
	return DueScheduled
}

// SameDay reports whether a falls on b's calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
