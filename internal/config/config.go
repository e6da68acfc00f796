package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete gitqueue configuration
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository" json:"repository"`
	Log        LogConfig        `mapstructure:"log" yaml:"log" json:"log"`
	Commit     CommitConfig     `mapstructure:"commit" yaml:"commit" json:"commit"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch" json:"watch"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// RepositoryConfig selects the history the queue is read from
type RepositoryConfig struct {
	// Path is the working tree of the repository (default: ".")
	Path string `mapstructure:"path" yaml:"path" json:"path"`
	// Ref is the revision whose history is read (default: "HEAD")
	Ref string `mapstructure:"ref" yaml:"ref" json:"ref"`
	// MaxCount limits how many commits are read. 0 reads the whole history.
	MaxCount int `mapstructure:"max_count" yaml:"max_count" json:"max_count"`
}

// LogConfig controls how the message log is built from history
type LogConfig struct {
	// SkipMalformed skips queue commits whose subject does not decode instead
	// of failing. Each skipped commit is logged at WARN. (default: false)
	SkipMalformed bool `mapstructure:"skip_malformed" yaml:"skip_malformed" json:"skip_malformed"`
}

// CommitConfig controls how queue commits are created
type CommitConfig struct {
	// SigningKey is passed to git commit --gpg-sign when set
	SigningKey string `mapstructure:"signing_key" yaml:"signing_key" json:"signing_key"`
	// NoGPGSign passes --no-gpg-sign, overriding commit.gpgsign in the
	// user's git config. Ignored when SigningKey is set. (default: false)
	NoGPGSign bool `mapstructure:"no_gpg_sign" yaml:"no_gpg_sign" json:"no_gpg_sign"`
}

// OutputConfig controls how commands print results
type OutputConfig struct {
	// Format is "text", "json" or "yaml" (default: "text")
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// Color is "auto", "always" or "never" (default: "auto")
	// auto colors text output only when stdout is a terminal.
	Color string `mapstructure:"color" yaml:"color" json:"color"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	// DebounceMs is how long to wait for a burst of ref updates to settle
	// before re-reading the history (default: 200)
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Enabled controls whether diagnostic logging is written (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	// Dir is the directory holding gitqueue.log. Empty logs to stderr.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
	// MaxSizeMB rotates gitqueue.log once it reaches this size. 0 never
	// rotates. Only applies when Dir is set. (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	// MaxBackups is how many rotated files are kept (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Path:     ".",
			Ref:      "HEAD",
			MaxCount: 0,
		},
		Log: LogConfig{
			SkipMalformed: false,
		},
		Commit: CommitConfig{
			SigningKey: "",
			NoGPGSign:  false,
		},
		Output: OutputConfig{
			Format: OutputText,
			Color:  ColorAuto,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// Debounce returns the watch debounce as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDir returns the logging directory with ~ expanded. An empty Dir
// stays empty.
func (c *LoggingConfig) ResolveDir() string {
	return expandHome(c.Dir)
}

// ResolvePath returns the repository path with ~ expanded.
func (c *RepositoryConfig) ResolvePath() string {
	if c.Path == "" {
		return "."
	}
	return expandHome(c.Path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Repository defaults
	viper.SetDefault("repository.path", defaults.Repository.Path)
	viper.SetDefault("repository.ref", defaults.Repository.Ref)
	viper.SetDefault("repository.max_count", defaults.Repository.MaxCount)

	// Message log defaults
	viper.SetDefault("log.skip_malformed", defaults.Log.SkipMalformed)

	// Commit defaults
	viper.SetDefault("commit.signing_key", defaults.Commit.SigningKey)
	viper.SetDefault("commit.no_gpg_sign", defaults.Commit.NoGPGSign)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitqueue")
	}
	// Fall back to ~/.config/gitqueue
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitqueue"
	}
	return filepath.Join(home, ".config", "gitqueue")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
