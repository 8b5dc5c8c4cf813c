package app

import (
	"fmt"
	"time"

	"github.com/nibzard/ticklist/internal/todo"
)

// TaskView is a render-ready active task.
type TaskView struct {
	ID            int64
	Text          string
	Completed     bool
	Priority      todo.Priority
	PriorityLabel string
	Created       string
	Due           string
	DueState      todo.DueState
	Editing       bool
}

// DeletedView is a render-ready deleted task.
type DeletedView struct {
	ID            int64
	Text          string
	Completed     bool
	Priority      todo.Priority
	PriorityLabel string
	Created       string
	Deleted       string
}

// View is everything a host needs to draw the list.
type View struct {
	Filter  todo.Filter
	Tasks   []TaskView
	Deleted []DeletedView
	Counts  todo.Counts
}

// Summary returns the "N of M tasks" line: pending over total active.
func (v View) Summary() string {
	return fmt.Sprintf("%d of %d tasks", v.Counts.Pending, v.Counts.Total)
}

// IsEmpty reports whether the filtered list has no rows.
func (v View) IsEmpty() bool {
	return len(v.Tasks) == 0
}

// View builds the view-model for the active list under filter and the
// deleted list, formatting dates relative to now.
func (s *Service) View(filter todo.Filter, now time.Time) View {
	editing, _ := s.store.Editing()

	tasks := s.store.Filter(filter)
	v := View{
		Filter: filter,
		Tasks:  make([]TaskView, 0, len(tasks)),
		Counts: s.store.Counts(),
	}
	for _, t := range tasks {
		v.Tasks = append(v.Tasks, TaskView{
			ID:            t.ID,
			Text:          t.Text,
			Completed:     t.Completed,
			Priority:      t.Priority,
			PriorityLabel: t.Priority.Label(),
			Created:       FormatCreated(t.CreatedAt, now),
			Due:           formatDuePtr(t.DueDate, now),
			DueState:      todo.DueStatus(t, now),
			Editing:       t.ID == editing,
		})
	}

	deleted := s.store.Deleted()
	v.Deleted = make([]DeletedView, 0, len(deleted))
	for _, t := range deleted {
		dv := DeletedView{
			ID:            t.ID,
			Text:          t.Text,
			Completed:     t.Completed,
			Priority:      t.Priority,
			PriorityLabel: t.Priority.Label(),
			Created:       FormatCreated(t.CreatedAt, now),
		}
		if t.DeletionKnown() {
			dv.Deleted = FormatCreated(*t.DeletedAt, now)
		}
		v.Deleted = append(v.Deleted, dv)
	}
	return v
}

func formatDuePtr(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	return FormatDue(*due, now)
}

// FormatCreated renders a past timestamp: the time alone for today,
// "yesterday 15:04", the weekday within the last week, the full date
// otherwise. The zero time renders empty.
func FormatCreated(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	switch days := dayDiff(t, now); {
	case days == 0:
		return t.Format("15:04")
	case days == -1:
		return "yesterday " + t.Format("15:04")
	case days > -7 && days < 0:
		return t.Format("Mon 15:04")
	default:
		return t.Format("02 Jan 2006 15:04")
	}
}

// FormatDue renders a due date relative to now. Due dates later today
// carry the remaining hours, those later this week the remaining days.
func FormatDue(due, now time.Time) string {
	due = due.In(now.Location())
	clock := due.Format("15:04")
	days := dayDiff(due, now)

	switch {
	case days == 0:
		if due.Before(now) {
			return "today " + clock + " (overdue)"
		}
		if h := int(due.Sub(now).Hours()); h > 0 {
			return fmt.Sprintf("today %s (in %dh)", clock, h)
		}
		return "today " + clock
	case days == 1:
		return "tomorrow " + clock
	case days == -1:
		return "yesterday " + clock
	case days > 1 && days < 7:
		return fmt.Sprintf("%s %s (in %dd)", due.Format("Mon"), clock, days)
	default:
		return due.Format("02 Jan 15:04")
	}
}

// dayDiff returns the number of calendar days from now to t, both taken in
// now's location.
func dayDiff(t, now time.Time) int {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}
