package config

import (
	"strconv"
	"time"

	"github.com/nibzard/ticklist/internal/todo"
)

// Filter returns the parsed default filter.
func (c *Config) Filter() todo.Filter {
	f, err := todo.ParseFilter(c.DefaultFilter)
	if err != nil {
		return todo.FilterAll
	}
	return f
}

// Priority returns the parsed default priority for new tasks.
func (c *Config) Priority() todo.Priority {
	p, err := todo.ParsePriority(c.DefaultPriority)
	if err != nil {
		return todo.PriorityNone
	}
	return p
}

// HookTimeout returns the hook timeout as a duration.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.HookTimeoutSeconds) * time.Second
}

// Value returns the printable value of a config field by its TOML key.
func (c *Config) Value(field string) string {
	switch field {
	case "data_file":
		return c.DataFile
	case "backend":
		return c.Backend
	case "schema_file":
		return c.SchemaFile
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(c.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(c.LogCaller)
	case "confirm":
		return strconv.FormatBool(c.Confirm)
	case "hook_command":
		return c.HookCommand
	case "hook_timeout_seconds":
		return strconv.Itoa(c.HookTimeoutSeconds)
	case "default_filter":
		return c.DefaultFilter
	case "default_priority":
		return c.DefaultPriority
	}
	return ""
}

// Fields returns the config field names in display order.
func Fields() []string {
	return configFields()
}
