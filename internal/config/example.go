package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# ticklist configuration file
# Values can be overridden by TICKLIST_* environment variables or CLI flags

# Task document (supports ~ expansion and %VAR% on Windows).
# Default: <user config dir>/ticklist/tasks.json (tasks.db for sqlite)
# data_file = "~/.config/ticklist/tasks.json"

# Storage backend: "file" (JSON document) or "sqlite"
backend = "file"

# JSON Schema used to check the document on load and by "ticklist doctor".
# Empty uses the built-in schema.
# schema_file = ""

# Base directory for per-run log files (default: <data dir>/logs)
# log_dir = "~/.config/ticklist/logs"

# Logging
log_level = "warn"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false

# Ask for confirmation before rm, purge and clear
confirm = true

# Command run after every save with: <action> <task-id> <data-file>
# hook_command = "/path/to/hook.sh"
hook_timeout_seconds = 10

# Default filter for "ls" and the TUI: all, none, low, medium, high
default_filter = "all"

# Priority given to new tasks when none is specified: "", low, medium, high
default_priority = ""
`
}
