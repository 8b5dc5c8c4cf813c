package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/ticklist/internal/app"
	"github.com/nibzard/ticklist/internal/config"
	"github.com/nibzard/ticklist/internal/todo"
	"github.com/nibzard/ticklist/internal/utils"
)

// now is the clock used for due dates and relative times.
var now = time.Now

// addCommand adds a task.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	prio := fs.String("p", cfg.DefaultPriority, "Priority (none, low, medium, high)")
	due := fs.String("due", "", "Due date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	priority, err := todo.ParsePriority(*prio)
	if err != nil {
		return err
	}
	var dueAt *time.Time
	if *due != "" {
		t, err := utils.ParseDateTime(*due, now())
		if err != nil {
			return err
		}
		dueAt = &t
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.dispatch(ctx, app.Add(text, priority, dueAt))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added task %d\n", res.TaskID)
	return nil
}

// lsCommand lists active tasks in stored order.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	filterArg := fs.String("filter", cfg.DefaultFilter, "Filter by priority (all, none, low, medium, high)")
	verbose := fs.Bool("v", false, "Show creation times")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
	if fs.NArg() == 1 {
		*filterArg = fs.Arg(0)
	}
	filter, err := todo.ParseFilter(*filterArg)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	v := s.svc.View(filter, now())
	if filter != todo.FilterAll {
		fmt.Fprintf(stdout, "Filter: %s\n", filter.Label())
	}
	if v.IsEmpty() {
		if v.Counts.Total == 0 {
			fmt.Fprintln(stdout, "No tasks yet.")
		} else {
			fmt.Fprintln(stdout, "No tasks match this filter.")
		}
	}
	for _, t := range v.Tasks {
		printTask(t, *verbose)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, v.Summary())
	return nil
}

// printTask prints a single task.
func printTask(t app.TaskView, verbose bool) {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("  %s %d  %s", check, t.ID, t.Text)
	if t.Priority != todo.PriorityNone {
		line += "  !" + t.PriorityLabel
	}
	if t.Due != "" {
		line += "  due " + t.Due
		if t.DueState == todo.DueOverdue && !strings.Contains(t.Due, "overdue") {
			line += " (overdue)"
		}
	}
	if verbose && t.Created != "" {
		line += "  created " + t.Created
	}
	fmt.Fprintln(stdout, line)
}

// doneCommand toggles the completed flag.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist done", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.dispatch(ctx, app.Toggle(id)); err != nil {
		return err
	}
	t, err := s.svc.Store().Get(id)
	if err != nil {
		return err
	}
	if t.Completed {
		fmt.Fprintf(stdout, "Completed task %d\n", id)
	} else {
		fmt.Fprintf(stdout, "Reopened task %d\n", id)
	}
	return nil
}

// editCommand changes text, priority or due date.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	text := fs.String("text", "", "New text")
	prio := fs.String("p", "", "New priority (none, low, medium, high)")
	due := fs.String("due", "", "New due date")
	noDue := fs.Bool("no-due", false, "Remove the due date")
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var patch todo.Patch
	if set["text"] || len(rest) > 0 {
		value := *text
		if !set["text"] {
			value = strings.Join(rest, " ")
		} else if len(rest) > 0 {
			return fmt.Errorf("unexpected arguments: %v", rest)
		}
		patch.Text = &value
	}
	if set["p"] {
		p, err := todo.ParsePriority(*prio)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	switch {
	case *noDue && set["due"]:
		return fmt.Errorf("-due and -no-due are mutually exclusive")
	case *noDue:
		patch.ClearDueDate = true
	case set["due"]:
		t, err := utils.ParseDateTime(*due, now())
		if err != nil {
			return err
		}
		patch.DueDate = &t
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change (use -text, -p, -due or -no-due)")
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.dispatch(ctx, app.Update(id, patch))
	if err != nil {
		return err
	}
	if !res.Changed {
		fmt.Fprintf(stdout, "Task %d unchanged\n", id)
		return nil
	}
	fmt.Fprintf(stdout, "Updated task %d\n", id)
	return nil
}

// prioCommand sets the priority of a task.
func prioCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist prio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: ticklist prio <id> <none|low|medium|high>")
	}
	p, err := todo.ParsePriority(rest[0])
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.dispatch(ctx, app.SetPriority(id, p)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Task %d priority: %s\n", id, p.Label())
	return nil
}

// rmCommand moves a task to the trash.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist rm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.svc.Store().Get(id)
	if err != nil {
		return err
	}
	ok, err := confirm(cfg, *yes, fmt.Sprintf("Delete %q?", utils.Truncate(t.Text, 50)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	if _, err := s.dispatch(ctx, app.Delete(id)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Moved task %d to the trash\n", id)
	return nil
}

// trashCommand lists deleted tasks, most recently deleted first.
func trashCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist trash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	v := s.svc.View(todo.FilterAll, now())
	if len(v.Deleted) == 0 {
		fmt.Fprintln(stdout, "Trash is empty.")
		return nil
	}
	for _, t := range v.Deleted {
		line := fmt.Sprintf("  %d  %s", t.ID, t.Text)
		if t.Priority != todo.PriorityNone {
			line += "  !" + t.PriorityLabel
		}
		if t.Deleted != "" {
			line += "  deleted " + t.Deleted
		}
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintf(stdout, "\n%d deleted\n", len(v.Deleted))
	return nil
}

// restoreCommand moves a deleted task back to the list.
func restoreCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist restore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.dispatch(ctx, app.Restore(id)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Restored task %d\n", id)
	return nil
}

// purgeCommand permanently removes a task from the trash.
func purgeCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist purge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	id, rest, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.svc.Store().GetDeleted(id)
	if err != nil {
		return err
	}
	ok, err := confirm(cfg, *yes, fmt.Sprintf("Permanently delete %q? This cannot be undone.", utils.Truncate(t.Text, 50)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	if _, err := s.dispatch(ctx, app.Purge(id)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Permanently deleted task %d\n", id)
	return nil
}

// clearCommand moves every completed task to the trash.
func clearCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist clear", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	n := s.svc.Store().CompletedCount()
	if n == 0 {
		fmt.Fprintln(stdout, "No completed tasks.")
		return nil
	}
	ok, err := confirm(cfg, *yes, fmt.Sprintf("Move %d completed task(s) to the trash?", n))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	res, err := s.dispatch(ctx, app.ClearCompleted())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Cleared %d task(s)\n", res.Count)
	return nil
}
