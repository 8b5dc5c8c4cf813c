package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nibzard/ticklist/internal/config"
	"github.com/nibzard/ticklist/internal/logging"
	"github.com/nibzard/ticklist/internal/storage"
)

// doctorCommand checks the config, the task document and the hook.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("ticklist doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg := cws.Config

	fmt.Fprintln(stdout, "ticklist doctor")
	fmt.Fprintln(stdout, "===============")
	fmt.Fprintln(stdout)

	allOK := true

	// Config
	fmt.Fprintln(stdout, "Config:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "  ✅ No config file (defaults)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(stdout, "  ✅ %s\n", f)
	}
	fmt.Fprintf(stdout, "  Backend: %s (%s)\n", cfg.Backend, cws.Sources["backend"])
	fmt.Fprintln(stdout)

	// Schema
	validator, err := storage.NewValidator(cfg.SchemaFile)
	fmt.Fprintln(stdout, "Schema:")
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(stdout, "  ✅ %s\n", validator.Source())
	}
	fmt.Fprintln(stdout)

	// Task document
	fmt.Fprintf(stdout, "Task document: %s\n", cfg.DataFile)
	if !checkDocument(ctx, cfg, validator, *verbose) {
		allOK = false
	}
	fmt.Fprintln(stdout)

	// Log directory
	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.DataFile)
	fmt.Fprintf(stdout, "Log directory: %s\n", cfg.LogDir)
	switch {
	case err != nil:
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		allOK = false
	default:
		runs, err := logging.FindLogRuns(logDir)
		if err != nil {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		} else if len(runs) == 0 {
			fmt.Fprintln(stdout, "  ⚠️  No run logs yet (created by the tui)")
		} else {
			fmt.Fprintf(stdout, "  ✅ %d run log(s), latest %s\n", len(runs), runs[0].Path)
		}
	}
	fmt.Fprintln(stdout)

	// Hook
	fmt.Fprintln(stdout, "Hook:")
	if !checkHook(cfg.HookCommand) {
		allOK = false
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

func checkDocument(ctx context.Context, cfg *config.Config, validator *storage.Validator, verbose bool) bool {
	if cfg.Backend == storage.BackendFile {
		if info, err := os.Stat(cfg.DataFile); err == nil && info.IsDir() {
			fmt.Fprintln(stdout, "  ❌ Error: path is a directory")
			return false
		}
	}

	backend, err := storage.Open(ctx, cfg.Backend, cfg.DataFile)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		return false
	}
	var opts []storage.Option
	if validator != nil {
		opts = append(opts, storage.WithValidator(validator))
	}
	gateway := storage.NewGateway(backend, opts...)
	defer gateway.Close()

	report, err := gateway.Inspect(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		return false
	}
	if !report.Exists {
		fmt.Fprintln(stdout, "  ⚠️  Not found (created on first change)")
		return true
	}
	if report.DecodeErr != nil {
		fmt.Fprintf(stdout, "  ❌ Unreadable: %v\n", report.DecodeErr)
		return false
	}

	ok := true
	if report.Version < storage.CurrentSchemaVersion {
		fmt.Fprintf(stdout, "  ⚠️  Schema version %d (upgraded on next save)\n", report.Version)
	} else {
		fmt.Fprintf(stdout, "  ✅ Schema version %d\n", report.Version)
	}
	if report.Schema != nil {
		if report.Schema.Valid {
			fmt.Fprintln(stdout, "  ✅ Valid")
		} else {
			fmt.Fprintln(stdout, "  ❌ Validation failed:")
			for _, e := range report.Schema.Errors {
				fmt.Fprintf(stdout, "     - %v\n", e)
			}
			ok = false
		}
	}
	if verbose {
		fmt.Fprintf(stdout, "  Tasks: %d active, %d deleted\n", report.Tasks, report.Deleted)
	}
	return ok
}

func checkHook(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fmt.Fprintln(stdout, "  ✅ Not configured")
		return true
	}
	binary := fields[0]
	resolved, err := exec.LookPath(binary)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ %s: %v\n", binary, err)
		return false
	}
	fmt.Fprintf(stdout, "  ✅ %s\n", resolved)
	return true
}
