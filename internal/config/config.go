package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ffcraft/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// FFmpeg contains encoder binary and process supervision settings.
type FFmpeg struct {
	Binary           string `toml:"binary"`
	FFprobeBinary    string `toml:"ffprobe_binary"`
	KillGraceSeconds int    `toml:"kill_grace_seconds"`
	// TimeoutSeconds of zero disables the per-invocation timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Queue contains job queue limits and retry policy.
type Queue struct {
	MaxConcurrent     int    `toml:"max_concurrent"`
	MaxRetries        int    `toml:"max_retries"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	PriorityMode      string `toml:"priority_mode"`
	RetentionHours    int    `toml:"retention_hours"`
	// HonorRetryAfter makes dequeue skip retried jobs until retry_after passes.
	HonorRetryAfter bool `toml:"honor_retry_after"`
}

// Worker contains dispatcher timing.
type Worker struct {
	PollIntervalMillis     int  `toml:"poll_interval_ms"`
	CleanupIntervalSeconds int  `toml:"cleanup_interval_seconds"`
	AutoRetry              bool `toml:"auto_retry"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ffcraft.
//
// Configuration sections by subsystem:
//   - Paths: data (presets database, run lock) and log directories
//   - FFmpeg: encoder binaries, kill grace period, invocation timeout
//   - Queue: concurrency, retries, priority mode, retention
//   - Worker: dispatcher poll and cleanup intervals
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Queue   Queue   `toml:"queue"`
	Worker  Worker  `toml:"worker"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ffcraft/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ffcraft.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PresetDBPath returns the SQLite database holding saved configurations.
func (c *Config) PresetDBPath() string {
	return filepath.Join(c.Paths.DataDir, "presets.db")
}

// RunLockPath returns the lock file that serializes batch runners.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.DataDir, "ffcraft-run.lock")
}

// KillGrace returns the delay between SIGTERM and SIGKILL on cancellation.
func (c *Config) KillGrace() time.Duration {
	return time.Duration(c.FFmpeg.KillGraceSeconds) * time.Second
}

// Timeout returns the per-invocation timeout, zero when disabled.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// RetryDelay returns the advisory back-off stamped on retried jobs.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Queue.RetryDelaySeconds) * time.Second
}

// Retention returns how long terminal jobs stay in the queue table.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Queue.RetentionHours) * time.Hour
}

// PollInterval returns the dispatcher's dequeue polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollIntervalMillis) * time.Millisecond
}

// CleanupInterval returns how often the dispatcher purges expired jobs.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Worker.CleanupIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
