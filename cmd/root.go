// Package cmd implements the CLI command structure for ticklist.
package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/ticklist/internal/app"
	"github.com/nibzard/ticklist/internal/config"
	"github.com/nibzard/ticklist/internal/logging"
	"github.com/nibzard/ticklist/internal/storage"
	"github.com/nibzard/ticklist/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Standard streams, swapped in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the ticklist CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Without a subcommand, list tasks
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "done", "toggle":
		return doneCommand(ctx, cfg, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "prio", "priority":
		return prioCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "trash":
		return trashCommand(ctx, cfg, remainingArgs)
	case "restore":
		return restoreCommand(ctx, cfg, remainingArgs)
	case "purge":
		return purgeCommand(ctx, cfg, remainingArgs)
	case "clear":
		return clearCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "export":
		return exportCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	case "logs", "tail":
		return logsCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// session is an opened task store for one command.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	gateway *storage.Gateway
	svc     *app.Service
}

func (s *session) Close() error {
	return s.gateway.Close()
}

// openSession opens the configured backend and loads the tasks. Logs go
// to logOut.
func openSession(ctx context.Context, cfg *config.Config, logOut io.Writer) (*session, error) {
	logger := logging.NewFromConfig(logOut, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)

	backend, err := storage.Open(ctx, cfg.Backend, cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	validator, err := storage.NewValidator(cfg.SchemaFile)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	gateway := storage.NewGateway(backend,
		storage.WithLogger(logger),
		storage.WithValidator(validator),
	)
	svc, err := app.Open(ctx, gateway,
		app.WithLogger(logger),
		app.WithHook(cfg.HookCommand, cfg.HookTimeout()),
	)
	if err != nil {
		gateway.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, gateway: gateway, svc: svc}, nil
}

// dispatch runs one intent and fails if the change could not be saved.
func (s *session) dispatch(ctx context.Context, in app.Intent) (app.Result, error) {
	res, err := s.svc.Dispatch(ctx, in)
	if err != nil {
		return res, err
	}
	if res.Changed && !res.Saved {
		return res, fmt.Errorf("saving %s failed (see log output)", s.gateway.Location())
	}
	return res, nil
}

// tuiCommand launches the TUI. Logs go to a per-run file so they do not
// draw over the screen.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.DataFile)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()

	s, err := openSession(ctx, cfg, runLog.Writer())
	if err != nil {
		return err
	}
	defer s.Close()
	s.logger.Info("tui started", "run", runLog.RunID, "data", s.gateway.Location())

	return ui.RunTUI(ctx, s.svc,
		ui.WithFilter(cfg.Filter()),
		ui.WithDefaultPriority(cfg.Priority()),
		ui.WithConfirm(cfg.Confirm),
	)
}

// logsCommand tails the latest TUI run log.
func logsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist logs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List run logs instead of showing one")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.DataFile)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		runs, err := logging.FindLogRuns(logDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No log files found.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(stdout, "%s  %s  %6d bytes  %s\n",
				r.RunID, r.ModTime.Format("2006-01-02 15:04:05"), r.Size, r.Path)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration with the source of
// every value.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("ticklist config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "Config files: (none)")
	} else {
		fmt.Fprintln(stdout, "Config files:")
		for _, f := range cws.Files {
			fmt.Fprintf(stdout, "  %s\n", f)
		}
	}
	fmt.Fprintln(stdout)
	for _, field := range config.Fields() {
		value := cws.Config.Value(field)
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(stdout, "%-22s %-40s (%s)\n", field, value, cws.Sources[field])
	}
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "ticklist version %s\n", Version)
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y or yes is no.
func confirm(cfg *config.Config, yes bool, prompt string) (bool, error) {
	if yes || !cfg.Confirm {
		return true, nil
	}
	fmt.Fprintf(stdout, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// parseWithID parses fs and returns the task id, accepted either before or
// after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (int64, []string, error) {
	var idArg string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		idArg, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 0, nil, err
	}
	rest := fs.Args()
	if idArg == "" {
		if len(rest) == 0 {
			return 0, nil, fmt.Errorf("missing task id")
		}
		idArg, rest = rest[0], rest[1:]
	}
	id, err := parseID(idArg)
	if err != nil {
		return 0, nil, err
	}
	return id, rest, nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "ticklist - a personal task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ticklist [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add [-p prio] [-due when] text    Add a task")
	fmt.Fprintln(w, "  ls [-filter f] [-v]               List tasks (default command)")
	fmt.Fprintln(w, "  done <id>                         Toggle completed")
	fmt.Fprintln(w, "  edit <id> [-text t] [-p prio] [-due when | -no-due]")
	fmt.Fprintln(w, "                                    Edit a task")
	fmt.Fprintln(w, "  prio <id> <prio>                  Set priority (none, low, medium, high)")
	fmt.Fprintln(w, "  rm [-y] <id>                      Move a task to the trash")
	fmt.Fprintln(w, "  trash                             List deleted tasks")
	fmt.Fprintln(w, "  restore <id>                      Restore a deleted task")
	fmt.Fprintln(w, "  purge [-y] <id>                   Permanently delete a task from the trash")
	fmt.Fprintln(w, "  clear [-y]                        Move completed tasks to the trash")
	fmt.Fprintln(w, "  tui                               Launch terminal UI")
	fmt.Fprintln(w, "  export [-format f] [-o file]      Export tasks (json, yaml, ics)")
	fmt.Fprintln(w, "  doctor [-v]                       Check config and the task document")
	fmt.Fprintln(w, "  logs [-n N] [-f] [-list]          Show the latest TUI log")
	fmt.Fprintln(w, "  config [-example]                 Show effective configuration")
	fmt.Fprintln(w, "  version                           Show version information")
	fmt.Fprintln(w, "  help                              Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Due dates: YYYY-MM-DD (end of day), YYYY-MM-DD HH:MM, today, tomorrow, +90m, +3h, +2d, +1w")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
