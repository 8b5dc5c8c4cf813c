package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/ticklist/internal/app"
	"github.com/nibzard/ticklist/internal/todo"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	faintStyle     = lipgloss.NewStyle().Faint(true)
	cursorStyle    = lipgloss.NewStyle().Bold(true)
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dueTodayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	priorityStyles = map[todo.Priority]lipgloss.Style{
		todo.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		todo.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		todo.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

func (m *tuiModel) View() string {
	var b strings.Builder

	if m.showHelp {
		writeTitle(&b, "ticklist", "")
		writeHelp(&b)
		return b.String()
	}

	if m.mode == modeTrash || (m.mode == modeConfirm && m.confirmReturn == modeTrash) {
		writeTitle(&b, "Trash", fmt.Sprintf("%d deleted", len(m.view.Deleted)))
		writeTrash(&b, m.view.Deleted, m.trashCursor)
	} else {
		writeTitle(&b, "ticklist", m.view.Summary())
		writeFilter(&b, m.filter)
		writeTasks(&b, m)
	}

	switch m.mode {
	case modeInput:
		if m.inputKind != inputEdit {
			b.WriteString(m.input.View() + "\n")
		}
	case modeConfirm:
		b.WriteString(promptStyle.Render(m.confirmPrompt+" (y/n)") + "\n")
	}
	writeStatus(&b, m.status)
	writeFooter(&b, m.mode)
	return b.String()
}

func writeTitle(b *strings.Builder, title, summary string) {
	b.WriteString(titleStyle.Render(title))
	if summary != "" {
		b.WriteString("  " + faintStyle.Render(summary))
	}
	b.WriteString("\n\n")
}

func writeFilter(b *strings.Builder, f todo.Filter) {
	if f == todo.FilterAll {
		return
	}
	b.WriteString(faintStyle.Render("Filter: "+f.Label()) + "\n\n")
}

func writeTasks(b *strings.Builder, m *tuiModel) {
	if m.view.IsEmpty() {
		if m.view.Counts.Total == 0 {
			b.WriteString("  No tasks yet. Press a to add one.\n\n")
		} else {
			b.WriteString("  No tasks match this filter.\n\n")
		}
		return
	}
	for i, t := range m.view.Tasks {
		selected := i == m.cursor
		if t.Editing && m.mode == modeInput && m.inputKind == inputEdit {
			b.WriteString("> " + m.input.View() + "\n")
			continue
		}
		b.WriteString(formatTaskLine(t, selected) + "\n")
	}
	b.WriteString("\n")
}

func formatTaskLine(t app.TaskView, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	text := t.Text
	if t.Completed {
		text = doneStyle.Render(text)
	} else if selected {
		text = cursorStyle.Render(text)
	}

	line := fmt.Sprintf("%s%s %s", cursor, check, text)
	if style, ok := priorityStyles[t.Priority]; ok {
		line += " " + style.Render("!"+t.PriorityLabel)
	} else if t.Priority != todo.PriorityNone {
		line += " " + faintStyle.Render("!"+t.PriorityLabel)
	}
	if t.Due != "" {
		line += "  " + renderDue(t)
	}
	if t.Created != "" {
		line += "  " + faintStyle.Render(t.Created)
	}
	return line
}

func renderDue(t app.TaskView) string {
	due := "due " + t.Due
	switch t.DueState {
	case todo.DueOverdue:
		return overdueStyle.Render(due)
	case todo.DueToday:
		return dueTodayStyle.Render(due)
	default:
		return faintStyle.Render(due)
	}
}

func writeTrash(b *strings.Builder, deleted []app.DeletedView, cursor int) {
	if len(deleted) == 0 {
		b.WriteString("  Trash is empty.\n\n")
		return
	}
	for i, t := range deleted {
		prefix := "  "
		text := t.Text
		if i == cursor {
			prefix = cursorStyle.Render("> ")
			text = cursorStyle.Render(text)
		}
		line := prefix + text
		if t.Priority != todo.PriorityNone {
			line += " " + faintStyle.Render("!"+t.PriorityLabel)
		}
		if t.Deleted != "" {
			line += "  " + faintStyle.Render("deleted "+t.Deleted)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeStatus(b *strings.Builder, status string) {
	if status == "" {
		return
	}
	b.WriteString(statusStyle.Render(status) + "\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a            Add a task\n")
	b.WriteString("  e, enter     Edit task text\n")
	b.WriteString("  u            Set or clear the due date\n")
	b.WriteString("  p            Cycle priority\n")
	b.WriteString("  space, x     Toggle completed\n")
	b.WriteString("  d            Delete (moves to trash)\n")
	b.WriteString("  f            Cycle filter\n")
	b.WriteString("  c            Clear completed tasks\n")
	b.WriteString("  t            Show trash (r restore, d delete permanently)\n")
	b.WriteString("  j/k, arrows  Move\n")
	b.WriteString("  ?            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
	b.WriteString(faintStyle.Render("Press any key to return") + "\n")
}

func writeFooter(b *strings.Builder, md mode) {
	var keys string
	switch md {
	case modeInput:
		keys = "enter save | esc cancel"
	case modeConfirm:
		keys = "y confirm | any other key cancels"
	case modeTrash:
		keys = "r restore | d delete | t back | q quit"
	default:
		keys = "a add | space done | d delete | f filter | t trash | ? help | q quit"
	}
	b.WriteString("\n" + faintStyle.Render(keys) + "\n")
}
