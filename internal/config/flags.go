package config

import (
	"flag"
)

// flagFields maps global flag names to config field names.
var flagFields = map[string]string{
	"data":           "data_file",
	"backend":        "backend",
	"schema":         "schema_file",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"confirm":        "confirm",
	"hook":           "hook_command",
	"hook-timeout":   "hook_timeout_seconds",
	"filter":         "default_filter",
	"priority":       "default_priority",
}

// RegisterFlags defines the global flags on fs, bound to cfg.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "Path to the task document")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (file, sqlite)")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema overriding the built-in one")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Base directory for run logs")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")
	fs.BoolVar(&cfg.Confirm, "confirm", cfg.Confirm, "Ask before destructive commands")
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Command to run after each save")
	fs.IntVar(&cfg.HookTimeoutSeconds, "hook-timeout", cfg.HookTimeoutSeconds, "Hook timeout (seconds)")
	fs.StringVar(&cfg.DefaultFilter, "filter", cfg.DefaultFilter, "Default list filter (all, none, low, medium, high)")
	fs.StringVar(&cfg.DefaultPriority, "priority", cfg.DefaultPriority, "Default priority for new tasks")
}

// parseFlags defines the global flags, parses args and records the source
// of every flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(AppName, flag.ContinueOnError)
	}
	RegisterFlags(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}
