// Package config handles objtool configuration loading and management.
package config

// Config holds all objtool settings.
type Config struct {
	Build   BuildConfig   `yaml:"build" toml:"build"`
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// BuildConfig holds model building settings.
type BuildConfig struct {
	// Strict fails on geometries that mix vertex formats instead of skipping them.
	Strict bool `yaml:"strict" toml:"strict"`
}

// ExportConfig holds buffer export settings.
type ExportConfig struct {
	Dir string `yaml:"dir" toml:"dir"` // Default output directory
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" toml:"debounce_ms"` // Quiet period before rebuilding
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			Strict: false,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
