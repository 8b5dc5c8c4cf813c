package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nibzard/ticklist/internal/todo"
)

const icsTimeLayout = "20060102T150405Z"

// BuildCalendar builds an iCalendar document with one event per task that
// has a due date. Tasks without one are skipped.
func BuildCalendar(tasks []todo.Task, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//ticklist//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format(icsTimeLayout)
	for _, t := range tasks {
		if !t.HasDueDate() {
			continue
		}
		lines = append(lines, eventLines(t, stamp)...)
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func eventLines(t todo.Task, stamp string) []string {
	due := t.DueDate.UTC().Format(icsTimeLayout)
	lines := []string{
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:task-%d@ticklist", t.ID),
		"DTSTAMP:" + stamp,
		foldICSLine("SUMMARY:" + escapeICSText(t.Text)),
		"DTSTART:" + due,
		"DTEND:" + due,
	}
	// VEVENT has no completed status; done tasks carry none.
	if !t.Completed {
		lines = append(lines, "STATUS:CONFIRMED")
	}
	if !t.CreatedAt.IsZero() {
		lines = append(lines, "CREATED:"+t.CreatedAt.UTC().Format(icsTimeLayout))
	}
	if p := icsPriority(t.Priority); p > 0 {
		lines = append(lines, fmt.Sprintf("PRIORITY:%d", p))
	}
	return append(lines, "END:VEVENT")
}

// icsPriority maps to RFC 5545 PRIORITY: 1 highest, 9 lowest, 0 undefined.
func icsPriority(p todo.Priority) int {
	switch p {
	case todo.PriorityHigh:
		return 1
	case todo.PriorityMedium:
		return 5
	case todo.PriorityLow:
		return 9
	}
	return 0
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}

// foldICSLine splits content lines longer than 75 octets. Continuation
// lines start with a space. Runes are never split.
func foldICSLine(line string) string {
	const limit = 75
	if len(line) <= limit {
		return line
	}
	var b strings.Builder
	width, room := 0, limit
	for _, r := range line {
		n := utf8.RuneLen(r)
		if width+n > room {
			b.WriteString("\r\n ")
			width, room = 0, limit-1
		}
		b.WriteRune(r)
		width += n
	}
	return b.String()
}
