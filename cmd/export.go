package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/ticklist/internal/config"
	"github.com/nibzard/ticklist/internal/export"
)

// exportCommand writes the tasks in another format to a file or stdout. An
// existing directory as -o gets a tasks.<ext> file.
func exportCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ticklist export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatArg := fs.String("format", "", export.Usage())
	out := fs.String("o", "", "Output file or directory (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	dir := false
	if *out != "" {
		if info, err := os.Stat(*out); err == nil && info.IsDir() {
			dir = true
		}
	}
	name := *formatArg
	if name == "" && *out != "" && !dir {
		name = strings.TrimPrefix(filepath.Ext(*out), ".")
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}
	if dir {
		*out = filepath.Join(*out, "tasks."+format.Ext())
	}

	s, err := openSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	state := s.svc.Store().Snapshot()
	if *out == "" {
		return export.Write(stdout, format, state, now())
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	if err := export.Write(f, format, state, now()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	fmt.Fprintf(stderr, "Exported %d task(s) as %s to %s\n", len(state.Tasks), format, *out)
	return nil
}
