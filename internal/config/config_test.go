package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default repository config
	if cfg.Repository.Path != "." {
		t.Errorf("Repository.Path = %q, want %q", cfg.Repository.Path, ".")
	}
	if cfg.Repository.Ref != "HEAD" {
		t.Errorf("Repository.Ref = %q, want %q", cfg.Repository.Ref, "HEAD")
	}
	if cfg.Repository.MaxCount != 0 {
		t.Errorf("Repository.MaxCount = %d, want 0", cfg.Repository.MaxCount)
	}

	// Malformed history is fatal unless asked otherwise
	if cfg.Log.SkipMalformed {
		t.Error("Log.SkipMalformed should be false by default")
	}

	if cfg.Commit.SigningKey != "" || cfg.Commit.NoGPGSign {
		t.Errorf("Commit = %+v, want zero value", cfg.Commit)
	}

	if cfg.Output.Format != OutputText {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, OutputText)
	}
	if cfg.Output.Color != ColorAuto {
		t.Errorf("Output.Color = %q, want %q", cfg.Output.Color, ColorAuto)
	}

	if cfg.Watch.DebounceMs != 200 {
		t.Errorf("Watch.DebounceMs = %d, want 200", cfg.Watch.DebounceMs)
	}

	if cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 || cfg.Logging.Compress {
		t.Errorf("Logging rotation = %d/%d/%v, want 10/3/false",
			cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.Compress)
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	tests := []struct {
		ms   int
		want time.Duration
	}{
		{0, 0},
		{50, 50 * time.Millisecond},
		{1500, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		cfg := WatchConfig{DebounceMs: tt.ms}
		if got := cfg.Debounce(); got != tt.want {
			t.Errorf("Debounce() with %dms = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestResolvePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"absolute", "/var/log/gitqueue", "/var/log/gitqueue"},
		{"relative", "logs", "logs"},
		{"home", "~", home},
		{"under home", "~/logs", filepath.Join(home, "logs")},
		{"tilde in middle", "a/~/b", "a/~/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoggingConfig{Dir: tt.in}
			if got := cfg.ResolveDir(); got != tt.want {
				t.Errorf("ResolveDir(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("empty repository path is the working directory", func(t *testing.T) {
		cfg := RepositoryConfig{}
		if got := cfg.ResolvePath(); got != "." {
			t.Errorf("ResolvePath() = %q, want %q", got, ".")
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := "/custom/config/gitqueue"
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()

		// Should be based on home directory
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "gitqueue")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/gitqueue/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	// Set defaults in viper first (normally done by cmd init)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Repository.Ref != "HEAD" {
		t.Errorf("Get().Repository.Ref = %q, want %q", cfg.Repository.Ref, "HEAD")
	}
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	viper.Set("repository.ref", "queue")
	viper.Set("log.skip_malformed", true)
	viper.Set("output.format", "yaml")
	viper.Set("watch.debounce_ms", 25)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Repository.Ref != "queue" || !cfg.Log.SkipMalformed || cfg.Output.Format != OutputYAML {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Watch.Debounce() != 25*time.Millisecond {
		t.Errorf("Watch.Debounce() = %v", cfg.Watch.Debounce())
	}
}

func TestLoad_FromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "repository:\n  max_count: 500\ncommit:\n  no_gpg_sign: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Repository.MaxCount != 500 || !cfg.Commit.NoGPGSign {
		t.Errorf("Load() = %+v", cfg)
	}
	// Unset keys keep their defaults
	if cfg.Output.Color != ColorAuto {
		t.Errorf("Output.Color = %q, want default", cfg.Output.Color)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	viper.Set("output.format", "xml")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error")
	}
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 1 || errs[0].Field != "output.format" {
		t.Errorf("Load() errors = %v", errs)
	}

	// Get falls back to defaults
	if cfg := Get(); cfg.Output.Format != OutputText {
		t.Errorf("Get() fallback Output.Format = %q", cfg.Output.Format)
	}
}
