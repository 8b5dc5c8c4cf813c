package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, in load order.
	Files []string
}

// Default values.
const (
	AppName            = "ticklist"
	DefaultBackend     = "file"
	DefaultFileName    = "tasks.json"
	DefaultSQLiteName  = "tasks.db"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultFilter      = "all"
	DefaultHookTimeout = 10
)

// Config holds the full configuration for ticklist.
type Config struct {
	// Storage
	DataFile   string `toml:"data_file"`
	Backend    string `toml:"backend"`
	SchemaFile string `toml:"schema_file"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Ask before destructive commands
	Confirm bool `toml:"confirm"`

	// Hooks
	HookCommand        string `toml:"hook_command"`
	HookTimeoutSeconds int    `toml:"hook_timeout_seconds"`

	// Presentation defaults
	DefaultFilter   string `toml:"default_filter"`
	DefaultPriority string `toml:"default_priority"`
}
