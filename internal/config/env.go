package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TICKLIST_* environment variables and
// updates source tracking.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	setString := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			sources[field] = SourceEnv
		}
	}
	setBool := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			sources[field] = SourceEnv
		}
	}

	setString("TICKLIST_DATA_FILE", "data_file", &cfg.DataFile)
	setString("TICKLIST_BACKEND", "backend", &cfg.Backend)
	setString("TICKLIST_SCHEMA", "schema_file", &cfg.SchemaFile)
	setString("TICKLIST_LOG_DIR", "log_dir", &cfg.LogDir)
	setString("TICKLIST_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("TICKLIST_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("TICKLIST_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("TICKLIST_LOG_CALLER", "log_caller", &cfg.LogCaller)
	setBool("TICKLIST_CONFIRM", "confirm", &cfg.Confirm)
	setString("TICKLIST_HOOK", "hook_command", &cfg.HookCommand)
	setString("TICKLIST_FILTER", "default_filter", &cfg.DefaultFilter)
	setString("TICKLIST_PRIORITY", "default_priority", &cfg.DefaultPriority)

	if v := os.Getenv("TICKLIST_HOOK_TIMEOUT"); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TICKLIST_HOOK_TIMEOUT: %w", err)
		}
		cfg.HookTimeoutSeconds = i
		sources["hook_timeout_seconds"] = SourceEnv
	}
	return nil
}

// boolFromString parses common truthy spellings. Anything else is false.
func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
