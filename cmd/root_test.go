// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var ticklistEnv = []string{
	"TICKLIST_DATA_FILE", "TICKLIST_BACKEND", "TICKLIST_SCHEMA", "TICKLIST_LOG_DIR",
	"TICKLIST_LOG_LEVEL", "TICKLIST_LOG_FORMAT", "TICKLIST_LOG_TIMESTAMPS",
	"TICKLIST_LOG_CALLER", "TICKLIST_CONFIRM", "TICKLIST_HOOK", "TICKLIST_HOOK_TIMEOUT",
	"TICKLIST_FILTER", "TICKLIST_PRIORITY",
}

// setup isolates the CLI from the user's config and returns a data file
// path inside a temp dir.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("APPDATA", filepath.Join(dir, "AppData"))
	for _, k := range ticklistEnv {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	oldIn, oldOut, oldErr, oldNow := stdin, stdout, stderr, now
	t.Cleanup(func() {
		stdin, stdout, stderr, now = oldIn, oldOut, oldErr, oldNow
	})
	stdin = strings.NewReader("")
	stderr = &bytes.Buffer{}
	now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local) }

	return filepath.Join(dir, "data", "tasks.json")
}

// run executes the CLI with global -data set and returns stdout.
func run(t *testing.T, data string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	stdout = &out
	full := append([]string{"-data", data}, args...)
	err := Run(context.Background(), full)
	return out.String(), err
}

func mustRun(t *testing.T, data string, args ...string) string {
	t.Helper()
	out, err := run(t, data, args...)
	if err != nil {
		t.Fatalf("ticklist %v: %v\n%s", args, err, out)
	}
	return out
}

var addedRe = regexp.MustCompile(`Added task (\d+)`)

func addTask(t *testing.T, data string, args ...string) string {
	t.Helper()
	out := mustRun(t, data, append([]string{"add"}, args...)...)
	m := addedRe.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("unexpected add output: %q", out)
	}
	return m[1]
}

func TestRun(t *testing.T) {
	t.Run("shows help with -h flag", func(t *testing.T) {
		setup(t)
		var out bytes.Buffer
		stdout = &out
		if err := Run(context.Background(), []string{"-h"}); err != nil {
			t.Errorf("expected no error with -h, got %v", err)
		}
		if !strings.Contains(out.String(), "Commands:") {
			t.Errorf("help output missing commands:\n%s", out.String())
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		data := setup(t)
		out := mustRun(t, data, "help")
		if !strings.Contains(out, "Global Options:") {
			t.Errorf("help output missing global options:\n%s", out)
		}
	})

	t.Run("shows version", func(t *testing.T) {
		data := setup(t)
		for _, args := range [][]string{{"version"}, {"-version"}} {
			out := mustRun(t, data, args...)
			if !strings.Contains(out, "ticklist version") {
				t.Errorf("%v: got %q", args, out)
			}
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		data := setup(t)
		_, err := run(t, data, "unknown-command")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("bad global flag value returns error", func(t *testing.T) {
		data := setup(t)
		_, err := run(t, data, "-backend", "postgres", "ls")
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestAddAndList(t *testing.T) {
	data := setup(t)

	out := mustRun(t, data)
	if !strings.Contains(out, "No tasks yet.") {
		t.Errorf("empty list: got %q", out)
	}
	if _, err := os.Stat(data); !os.IsNotExist(err) {
		t.Error("listing must not create the data file")
	}

	addTask(t, data, "Buy", "milk")
	addTask(t, data, "-p", "high", "-due", "2024-05-10", "File taxes")

	out = mustRun(t, data, "ls")
	for _, want := range []string{"Buy milk", "File taxes", "!high", "due today 23:59", "2 of 2 tasks"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, data, "ls", "-filter", "high")
	if strings.Contains(out, "Buy milk") || !strings.Contains(out, "File taxes") {
		t.Errorf("filtered ls:\n%s", out)
	}
	out = mustRun(t, data, "ls", "none")
	if !strings.Contains(out, "Buy milk") || strings.Contains(out, "File taxes") {
		t.Errorf("positional filter:\n%s", out)
	}

	if _, err := run(t, data, "ls", "-filter", "urgent"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestAddValidation(t *testing.T) {
	data := setup(t)

	if _, err := run(t, data, "add"); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("empty text: got %v", err)
	}
	if _, err := run(t, data, "add", "-p", "urgent", "x"); err == nil {
		t.Error("expected error for invalid priority")
	}
	if _, err := run(t, data, "add", "-due", "someday", "x"); err == nil {
		t.Error("expected error for invalid due date")
	}
}

func TestDoneEditPrio(t *testing.T) {
	data := setup(t)
	id := addTask(t, data, "Buy milk")

	out := mustRun(t, data, "done", id)
	if !strings.Contains(out, "Completed task "+id) {
		t.Errorf("done: got %q", out)
	}
	out = mustRun(t, data, "done", id)
	if !strings.Contains(out, "Reopened task "+id) {
		t.Errorf("done again: got %q", out)
	}

	mustRun(t, data, "edit", id, "-text", "Buy oat milk", "-p", "medium")
	out = mustRun(t, data, "edit", id, "-text", "Buy oat milk")
	if !strings.Contains(out, "unchanged") {
		t.Errorf("unchanged edit: got %q", out)
	}
	mustRun(t, data, "edit", id, "Buy", "soy", "milk")
	if _, err := run(t, data, "edit", id); err == nil {
		t.Error("expected error for edit without changes")
	}
	if _, err := run(t, data, "edit", id, "-due", "today", "-no-due"); err == nil {
		t.Error("expected error for -due with -no-due")
	}

	mustRun(t, data, "prio", id, "low")
	out = mustRun(t, data, "ls")
	if !strings.Contains(out, "Buy soy milk") || !strings.Contains(out, "!low") {
		t.Errorf("after edits:\n%s", out)
	}
}

func TestUnknownID(t *testing.T) {
	data := setup(t)
	addTask(t, data, "x")

	for _, args := range [][]string{{"done", "999"}, {"restore", "999"}, {"purge", "-y", "999"}, {"rm", "-y", "999"}} {
		_, err := run(t, data, args...)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("%v: expected not found error, got %v", args, err)
		}
	}
	if _, err := run(t, data, "done", "abc"); err == nil || !strings.Contains(err.Error(), "invalid task id") {
		t.Errorf("expected invalid id error, got %v", err)
	}
	if _, err := run(t, data, "done"); err == nil || !strings.Contains(err.Error(), "missing task id") {
		t.Errorf("expected missing id error, got %v", err)
	}
}

func TestDeleteRestorePurge(t *testing.T) {
	data := setup(t)
	id := addTask(t, data, "Buy milk")

	stdin = strings.NewReader("n\n")
	out := mustRun(t, data, "rm", id)
	if !strings.Contains(out, "[y/N]") || !strings.Contains(out, "Cancelled.") {
		t.Errorf("rm answered no: got %q", out)
	}

	stdin = strings.NewReader("y\n")
	out = mustRun(t, data, "rm", id)
	if !strings.Contains(out, "Moved task "+id+" to the trash") {
		t.Errorf("rm answered yes: got %q", out)
	}

	out = mustRun(t, data, "trash")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "1 deleted") {
		t.Errorf("trash:\n%s", out)
	}

	mustRun(t, data, "restore", id)
	out = mustRun(t, data, "ls")
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("restored task missing:\n%s", out)
	}

	mustRun(t, data, "rm", "-y", id)
	out = mustRun(t, data, "purge", "-y", id)
	if !strings.Contains(out, "Permanently deleted task "+id) {
		t.Errorf("purge: got %q", out)
	}
	out = mustRun(t, data, "trash")
	if !strings.Contains(out, "Trash is empty.") {
		t.Errorf("trash after purge:\n%s", out)
	}
	if _, err := run(t, data, "restore", id); err == nil {
		t.Error("purged task must not be restorable")
	}
}

func TestClear(t *testing.T) {
	data := setup(t)

	out := mustRun(t, data, "clear", "-y")
	if !strings.Contains(out, "No completed tasks.") {
		t.Errorf("clear with nothing completed: got %q", out)
	}

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, addTask(t, data, "task", strconv.Itoa(i)))
	}
	mustRun(t, data, "done", ids[1])
	mustRun(t, data, "done", ids[3])

	out = mustRun(t, data, "-confirm=false", "clear")
	if !strings.Contains(out, "Cleared 2 task(s)") {
		t.Errorf("clear: got %q", out)
	}
	out = mustRun(t, data, "ls")
	if !strings.Contains(out, "3 of 3 tasks") {
		t.Errorf("ls after clear:\n%s", out)
	}
	out = mustRun(t, data, "trash")
	if !strings.Contains(out, "2 deleted") {
		t.Errorf("trash after clear:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	data := setup(t)
	addTask(t, data, "-due", "2024-05-11 09:00", "Dentist")

	out := mustRun(t, data, "export")
	if !strings.Contains(out, `"schemaVersion": 1`) || !strings.Contains(out, "Dentist") {
		t.Errorf("json export:\n%s", out)
	}
	out = mustRun(t, data, "export", "-format", "yaml")
	if !strings.Contains(out, "text: Dentist") {
		t.Errorf("yaml export:\n%s", out)
	}
	out = mustRun(t, data, "export", "-format", "ics")
	if !strings.Contains(out, "BEGIN:VEVENT") || !strings.Contains(out, "SUMMARY:Dentist") {
		t.Errorf("ics export:\n%s", out)
	}

	file := filepath.Join(filepath.Dir(data), "out.ics")
	mustRun(t, data, "export", "-o", file)
	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "BEGIN:VCALENDAR") {
		t.Errorf("format should follow the file extension, got:\n%s", content)
	}

	outDir := t.TempDir()
	mustRun(t, data, "export", "-format", "yaml", "-o", outDir)
	content, err = os.ReadFile(filepath.Join(outDir, "tasks.yaml"))
	if err != nil {
		t.Fatalf("export into a directory: %v", err)
	}
	if !strings.Contains(string(content), "text: Dentist") {
		t.Errorf("yaml file:\n%s", content)
	}

	if _, err := run(t, data, "export", "-format", "csv"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLegacyDocumentIsUpgraded(t *testing.T) {
	data := setup(t)
	if err := os.MkdirAll(filepath.Dir(data), 0755); err != nil {
		t.Fatal(err)
	}
	legacy := `[{"id":1,"text":"old task","completed":true,"priority":"low"}]`
	if err := os.WriteFile(data, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, data, "ls")
	if !strings.Contains(out, "old task") || !strings.Contains(out, "0 of 1 tasks") {
		t.Errorf("legacy ls:\n%s", out)
	}
	content, err := os.ReadFile(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `"deletedTasks": []`) {
		t.Errorf("document should be rewritten in the current format:\n%s", content)
	}
}

func TestSQLiteBackend(t *testing.T) {
	data := setup(t)
	db := strings.TrimSuffix(data, ".json") + ".db"

	var out bytes.Buffer
	stdout = &out
	if err := Run(context.Background(), []string{"-backend", "sqlite", "-data", db, "add", "Buy milk"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	out.Reset()
	if err := Run(context.Background(), []string{"-backend", "sqlite", "-data", db, "ls"}); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out.String(), "Buy milk") {
		t.Errorf("sqlite ls:\n%s", out.String())
	}
}

func TestDoctor(t *testing.T) {
	data := setup(t)

	out := mustRun(t, data, "doctor")
	if !strings.Contains(out, "All checks passed") {
		t.Errorf("doctor on empty setup:\n%s", out)
	}

	addTask(t, data, "x")
	out = mustRun(t, data, "doctor", "-v")
	if !strings.Contains(out, "Schema version 1") || !strings.Contains(out, "1 active, 0 deleted") {
		t.Errorf("doctor -v:\n%s", out)
	}

	if err := os.WriteFile(data, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, data, "doctor")
	if err == nil || !strings.Contains(out, "Unreadable") {
		t.Errorf("doctor on corrupt document: err %v\n%s", err, out)
	}

	if err := os.Remove(data); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, data, "-hook", "ticklist-missing-hook-binary", "doctor")
	if err == nil || !strings.Contains(out, "ticklist-missing-hook-binary") {
		t.Errorf("doctor with missing hook: err %v\n%s", err, out)
	}
}

func TestConfigCommand(t *testing.T) {
	data := setup(t)

	out := mustRun(t, data, "config")
	if !strings.Contains(out, "Config files: (none)") {
		t.Errorf("config output:\n%s", out)
	}
	if !regexp.MustCompile(`data_file\s+\S+\s+\(flag\)`).MatchString(out) {
		t.Errorf("data_file should come from the flag:\n%s", out)
	}
	if !regexp.MustCompile(`backend\s+file\s+\(default\)`).MatchString(out) {
		t.Errorf("backend should be the default:\n%s", out)
	}

	out = mustRun(t, data, "config", "-example")
	if !strings.Contains(out, "hook_command") {
		t.Errorf("example config:\n%s", out)
	}
}

func TestLogsWithoutRuns(t *testing.T) {
	data := setup(t)
	out := mustRun(t, data, "logs")
	if !strings.Contains(out, "No log files found.") {
		t.Errorf("logs: got %q", out)
	}
	out = mustRun(t, data, "logs", "-list")
	if !strings.Contains(out, "No log files found.") {
		t.Errorf("logs -list: got %q", out)
	}
}

func TestParseWithID(t *testing.T) {
	tests := []struct {
		args     []string
		wantID   int64
		wantRest []string
		wantErr  bool
	}{
		{[]string{"12"}, 12, nil, false},
		{[]string{"12", "-y"}, 12, nil, false},
		{[]string{"-y", "12"}, 12, nil, false},
		{[]string{"12", "more", "words"}, 12, []string{"more", "words"}, false},
		{[]string{"-y"}, 0, nil, true},
		{[]string{"0"}, 0, nil, true},
		{[]string{"x1"}, 0, nil, true},
	}
	for _, tt := range tests {
		fs := newTestFlagSet()
		id, rest, err := parseWithID(fs, tt.args)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseWithID(%v): expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseWithID(%v): %v", tt.args, err)
			continue
		}
		if id != tt.wantID || strings.Join(rest, " ") != strings.Join(tt.wantRest, " ") {
			t.Errorf("parseWithID(%v): got %d %v, want %d %v", tt.args, id, rest, tt.wantID, tt.wantRest)
		}
	}
}

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Bool("y", false, "")
	return fs
}
