package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPollInterval      = 5 * time.Second
	DefaultBroadcastInterval = 5 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 10
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 28
)

// FileName is the config file looked up next to the executable.
const FileName = "savewarden.yaml"

// executableDir is swapped out in tests.
var executableDir = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Config is the daemon configuration. Fields map 1:1 to savewarden.yaml.
type Config struct {
	// WatchDir is the directory holding the .baronysave files.
	// Empty means the directory of the running executable.
	WatchDir string `yaml:"watch_dir"`

	// PollInterval is the time between two directory snapshots.
	PollInterval time.Duration `yaml:"poll_interval"`

	Log    LogConfig    `yaml:"log"`
	Status StatusConfig `yaml:"status"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is text | json.
	Format string `yaml:"format"`

	// File, when set, receives a copy of every log line and is rotated.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SlogLevel returns Level as a slog.Level. Call after validation.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// StatusConfig configures the optional local status server.
type StatusConfig struct {
	// Listen is the host:port to serve on. Empty disables the server.
	Listen string `yaml:"listen"`

	// BroadcastInterval controls how often stats are pushed to websocket clients.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = defaults()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// DefaultPath returns savewarden.yaml in the executable's directory,
// or in the working directory when that cannot be determined.
func DefaultPath() string {
	dir, err := executableDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, FileName)
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Status: StatusConfig{
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// finish resolves the watch dir and validates.
func finish(cfg *Config) error {
	if cfg.WatchDir == "" {
		dir, err := executableDir()
		if err != nil {
			return fmt.Errorf("config: locate executable: %w", err)
		}
		cfg.WatchDir = dir
	}
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// validate checks structural constraints.
func validate(cfg *Config) error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q unknown: want text|json", cfg.Log.Format)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	if cfg.Status.BroadcastInterval <= 0 {
		return fmt.Errorf("status.broadcast_interval must be positive")
	}
	return nil
}

// Validate re-checks cfg after callers override fields (e.g. from flags).
func (c *Config) Validate() error {
	if err := validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
