// Package hooks runs the user's post-save command.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a hook run when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options describes one hook invocation.
type Options struct {
	// Command is the executable, optionally followed by fixed arguments
	// separated by spaces. Empty disables the hook.
	Command string
	// Action names the intent that caused the save, e.g. "add".
	Action string
	// TaskID is the affected task, or 0 for bulk actions.
	TaskID int64
	// Location is where the document was saved.
	Location string
	WorkDir  string
	Timeout  time.Duration
}

// Result reports what happened.
type Result struct {
	Ran      bool
	ExitCode int
	Output   string
}

// Invoke runs the hook as `<command> <action> <task-id> <location>`.
// The same values are exported as TICKLIST_ACTION, TICKLIST_TASK_ID and
// TICKLIST_DATA_FILE. A non-zero exit is returned as an error.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	var result Result

	fields := strings.Fields(opts.Command)
	if len(fields) == 0 {
		return result, nil
	}
	if opts.Action == "" {
		return result, fmt.Errorf("hook action is empty")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	taskID := strconv.FormatInt(opts.TaskID, 10)
	args := append(fields[1:], opts.Action, taskID, opts.Location)

	cmd := exec.CommandContext(ctx, fields[0], args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"TICKLIST_ACTION="+opts.Action,
		"TICKLIST_TASK_ID="+taskID,
		"TICKLIST_DATA_FILE="+opts.Location,
	)

	// Children that inherit the output pipe must not outlive the timeout.
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("start hook: %w", err)
	}
	result.Ran = true

	err := cmd.Wait()
	result.Output = strings.TrimSpace(out.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			return result, fmt.Errorf("hook interrupted: %w", ctx.Err())
		}
		return result, fmt.Errorf("hook failed: %w", err)
	}
	return result, nil
}
