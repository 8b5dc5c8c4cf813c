// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/ticklist/internal/app"
	"github.com/nibzard/ticklist/internal/todo"
	"github.com/nibzard/ticklist/internal/utils"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	filter          todo.Filter
	defaultPriority todo.Priority
	confirm         bool
	now             func() time.Time
	tickInterval    time.Duration
}

// WithFilter sets the initial filter.
func WithFilter(f todo.Filter) TUIOption {
	return func(c *tuiConfig) {
		c.filter = f
	}
}

// WithDefaultPriority sets the priority of tasks added from the TUI.
func WithDefaultPriority(p todo.Priority) TUIOption {
	return func(c *tuiConfig) {
		c.defaultPriority = p
	}
}

// WithConfirm controls the y/n prompt before destructive actions.
func WithConfirm(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.confirm = enabled
	}
}

// WithClock overrides the time source used for relative dates.
func WithClock(now func() time.Time) TUIOption {
	return func(c *tuiConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// RunTUI starts the TUI on svc and blocks until the user quits.
func RunTUI(ctx context.Context, svc *app.Service, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, svc, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

type mode int

const (
	modeList mode = iota
	modeInput
	modeConfirm
	modeTrash
)

type inputKind int

const (
	inputAdd inputKind = iota
	inputEdit
	inputDue
)

type tuiModel struct {
	ctx context.Context
	svc *app.Service
	cfg tuiConfig

	filter todo.Filter
	view   app.View

	mode        mode
	cursor      int
	trashCursor int
	showHelp    bool
	status      string

	input       textinput.Model
	inputKind   inputKind
	inputTarget int64

	confirmPrompt string
	confirmIntent app.Intent
	confirmDone   string
	confirmReturn mode
}

type tickMsg time.Time

func newTUIModel(ctx context.Context, svc *app.Service, opts ...TUIOption) *tuiModel {
	cfg := tuiConfig{
		filter:       todo.FilterAll,
		confirm:      true,
		now:          time.Now,
		tickInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Prompt = "> "

	m := &tuiModel{
		ctx:    ctx,
		svc:    svc,
		cfg:    cfg,
		filter: cfg.filter,
		input:  ti,
	}
	m.refresh()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return tickCmd(m.cfg.tickInterval)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg.String())
		case modeTrash:
			return m.updateTrash(msg.String())
		default:
			return m.updateList(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-10, 10)
	case tickMsg:
		// Relative dates and due states drift with the clock.
		m.refresh()
		return m, tickCmd(m.cfg.tickInterval)
	}
	return m, nil
}

func (m *tuiModel) updateList(key string) (tea.Model, tea.Cmd) {
	if m.showHelp && key != "q" {
		m.showHelp = false
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.view.Tasks))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.view.Tasks))
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = clampCursor(len(m.view.Tasks)-1, len(m.view.Tasks))
	case "a":
		return m, m.openInput(inputAdd, 0, "", "New task")
	case "e", "enter":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.dispatch(app.StartEdit(task.ID), "") {
			return m, nil
		}
		return m, m.openInput(inputEdit, task.ID, task.Text, "Task text")
	case "u":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.openInput(inputDue, task.ID, m.dueInputValue(task.ID),
			"Due: YYYY-MM-DD [HH:MM], today, tomorrow, +3d (empty clears)")
	case " ", "x":
		if task, ok := m.selected(); ok {
			m.dispatch(app.Toggle(task.ID), "")
		}
	case "p":
		if task, ok := m.selected(); ok {
			next := task.Priority.Next()
			m.dispatch(app.SetPriority(task.ID, next), "Priority: "+next.Label())
		}
	case "d", "delete":
		if task, ok := m.selected(); ok {
			m.ask(fmt.Sprintf("Delete %q?", utils.Truncate(task.Text, 40)), app.Delete(task.ID), "Moved to trash")
		}
	case "f":
		m.filter = m.filter.Next()
		m.refresh()
		m.status = "Filter: " + m.filter.Label()
	case "t":
		m.mode = modeTrash
		m.trashCursor = clampCursor(m.trashCursor, len(m.view.Deleted))
		m.status = ""
	case "c":
		if m.view.Counts.Completed == 0 {
			m.status = "No completed tasks"
			return m, nil
		}
		m.ask(fmt.Sprintf("Clear %d completed task(s)?", m.view.Counts.Completed), app.ClearCompleted(), "")
	}
	return m, nil
}

func (m *tuiModel) updateTrash(key string) (tea.Model, tea.Cmd) {
	if m.showHelp && key != "q" {
		m.showHelp = false
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "t", "esc":
		m.mode = modeList
		m.status = ""
	case "up", "k":
		m.trashCursor = clampCursor(m.trashCursor-1, len(m.view.Deleted))
	case "down", "j":
		m.trashCursor = clampCursor(m.trashCursor+1, len(m.view.Deleted))
	case "r":
		if task, ok := m.selectedDeleted(); ok {
			m.dispatch(app.Restore(task.ID), "Restored")
		}
	case "d", "delete":
		if task, ok := m.selectedDeleted(); ok {
			m.ask(fmt.Sprintf("Permanently delete %q?", utils.Truncate(task.Text, 40)), app.Purge(task.ID), "Deleted permanently")
		}
	}
	return m, nil
}

// ask dispatches in directly when confirmations are off and otherwise switches to
// the y/n prompt.
func (m *tuiModel) ask(prompt string, in app.Intent, done string) {
	if !m.cfg.confirm {
		m.dispatch(in, done)
		return
	}
	m.confirmPrompt = prompt
	m.confirmIntent = in
	m.confirmDone = done
	m.confirmReturn = m.mode
	m.mode = modeConfirm
	m.status = ""
}

func (m *tuiModel) updateConfirm(key string) (tea.Model, tea.Cmd) {
	m.mode = m.confirmReturn
	in := m.confirmIntent
	m.confirmIntent = app.Intent{}
	switch key {
	case "y", "Y":
		m.dispatch(in, m.confirmDone)
	default:
		m.status = "Cancelled"
	}
	return m, nil
}

func (m *tuiModel) openInput(kind inputKind, target int64, value, placeholder string) tea.Cmd {
	m.mode = modeInput
	m.inputKind = kind
	m.inputTarget = target
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.status = ""
	return m.input.Focus()
}

func (m *tuiModel) closeInput() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeList
}

func (m *tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.inputKind == inputEdit {
			m.dispatch(app.CancelEdit(m.inputTarget), "")
		}
		m.closeInput()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		m.submitInput(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput applies the input. On a validation error the input stays
// open so the user can fix it.
func (m *tuiModel) submitInput(value string) {
	switch m.inputKind {
	case inputAdd:
		in := app.Add(value, m.cfg.defaultPriority, nil)
		if !m.dispatch(in, "Added") {
			return
		}
		m.closeInput()
	case inputEdit:
		text := value
		if !m.dispatch(app.Update(m.inputTarget, todo.Patch{Text: &text}), "Updated") {
			return
		}
		m.closeInput()
	case inputDue:
		patch := todo.Patch{ClearDueDate: true}
		done := "Due date cleared"
		if strings.TrimSpace(value) != "" {
			due, err := utils.ParseDateTime(value, m.cfg.now())
			if err != nil {
				m.status = err.Error()
				return
			}
			patch = todo.Patch{DueDate: &due}
			done = "Due " + app.FormatDue(due, m.cfg.now())
		}
		if !m.dispatch(app.Update(m.inputTarget, patch), done) {
			return
		}
		m.closeInput()
	}
}

// dispatch applies in, refreshes the view and sets the status line to done.
// Errors go to the status line instead.
func (m *tuiModel) dispatch(in app.Intent, done string) bool {
	res, err := m.svc.Dispatch(m.ctx, in)
	m.refresh()
	if err != nil {
		m.status = "Error: " + err.Error()
		return false
	}
	switch {
	case res.Changed && !res.Saved:
		m.status = "Warning: changes could not be saved"
	case in.Action == app.ActionClearCompleted:
		m.status = fmt.Sprintf("Cleared %d task(s)", res.Count)
	default:
		m.status = done
	}
	if in.Action == app.ActionAdd {
		m.cursor = m.indexOf(res.TaskID)
	}
	return true
}

func (m *tuiModel) refresh() {
	m.view = m.svc.View(m.filter, m.cfg.now())
	m.cursor = clampCursor(m.cursor, len(m.view.Tasks))
	m.trashCursor = clampCursor(m.trashCursor, len(m.view.Deleted))
}

func (m *tuiModel) selected() (app.TaskView, bool) {
	if len(m.view.Tasks) == 0 {
		return app.TaskView{}, false
	}
	return m.view.Tasks[m.cursor], true
}

func (m *tuiModel) selectedDeleted() (app.DeletedView, bool) {
	if len(m.view.Deleted) == 0 {
		return app.DeletedView{}, false
	}
	return m.view.Deleted[m.trashCursor], true
}

func (m *tuiModel) indexOf(id int64) int {
	for i, t := range m.view.Tasks {
		if t.ID == id {
			return i
		}
	}
	return m.cursor
}

func (m *tuiModel) dueInputValue(id int64) string {
	task, err := m.svc.Store().Get(id)
	if err != nil || task.DueDate == nil {
		return ""
	}
	return task.DueDate.In(m.cfg.now().Location()).Format("2006-01-02 15:04")
}

func clampCursor(cursor, n int) int {
	if n <= 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
