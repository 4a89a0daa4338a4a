package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.Binary == "" {
		return errors.New("ffmpeg.binary must be set")
	}
	if c.FFmpeg.KillGraceSeconds < 0 {
		return errors.New("ffmpeg.kill_grace_seconds must be >= 0")
	}
	if c.FFmpeg.TimeoutSeconds < 0 {
		return errors.New("ffmpeg.timeout_seconds must be >= 0 (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.MaxConcurrent <= 0 {
		return errors.New("queue.max_concurrent must be positive")
	}
	if c.Queue.MaxRetries < 0 {
		return errors.New("queue.max_retries must be >= 0")
	}
	if c.Queue.RetryDelaySeconds < 0 {
		return errors.New("queue.retry_delay_seconds must be >= 0")
	}
	if c.Queue.RetentionHours < 0 {
		return errors.New("queue.retention_hours must be >= 0")
	}
	switch c.Queue.PriorityMode {
	case PriorityModeFIFO, PriorityModePriority:
	default:
		return fmt.Errorf("queue.priority_mode: unsupported value %q (use %q or %q)", c.Queue.PriorityMode, PriorityModeFIFO, PriorityModePriority)
	}
	return nil
}

func (c *Config) validateWorker() error {
	return ensurePositiveMap(map[string]int{
		"worker.poll_interval_ms":         c.Worker.PollIntervalMillis,
		"worker.cleanup_interval_seconds": c.Worker.CleanupIntervalSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
