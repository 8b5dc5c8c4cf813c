package config

import (
	"os"
	"path/filepath"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	names := []string{AppName + ".toml", "." + AppName + ".toml"}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.ticklist/ticklist.toml first, then falls back to the OS-specific
// config directory.
func findUserConfigFile() string {
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, "."+AppName, AppName+".toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		userConfigPath := filepath.Join(cfgDir, AppName, AppName+".toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	return ""
}

// setDefaults applies default values to the config. Paths that depend on
// other fields are left empty and filled in by finalizeConfig.
func setDefaults(cfg *Config) {
	cfg.DataFile = ""
	cfg.Backend = DefaultBackend
	cfg.SchemaFile = ""
	cfg.LogDir = ""
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
	cfg.Confirm = true
	cfg.HookCommand = ""
	cfg.HookTimeoutSeconds = DefaultHookTimeout
	cfg.DefaultFilter = DefaultFilter
	cfg.DefaultPriority = ""
}

// GetConfigFile returns the config file with the highest precedence that
// was read, or "" when none was.
func (cws *ConfigWithSources) GetConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}
