package queue

import (
	"fmt"
	"strings"
	"time"

	"ffcraft/internal/config"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user-supplied status name.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range allStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsFinished reports whether the job has stopped running, including
// failures that may still be retried.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusQueued:  {StatusRunning, StatusCancelled},
	StatusRunning: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:  {StatusQueued},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is a queued command and its lifecycle bookkeeping. Zero timestamps are
// unset.
type Job struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Command         []string      `json:"command"`
	Status          Status        `json:"status"`
	Priority        int           `json:"priority"`
	RetryCount      int           `json:"retry_count"`
	RetryAfter      time.Time     `json:"retry_after,omitzero"`
	Error           string        `json:"error,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	StartedAt       time.Time     `json:"started_at,omitzero"`
	CompletedAt     time.Time     `json:"completed_at,omitzero"`
	ProgressPercent float64       `json:"progress_percent"`
	ProgressMessage string        `json:"progress_message,omitempty"`
	TotalDuration   time.Duration `json:"total_duration,omitempty"`
}

func (j Job) clone() Job {
	j.Command = append([]string(nil), j.Command...)
	return j
}

// JobSpec describes a job to enqueue.
type JobSpec struct {
	Name     string
	Command  []string
	Priority int
	// TotalDuration is the expected media duration, used for progress percent.
	TotalDuration time.Duration
}

// PriorityMode selects how Dequeue orders queued jobs.
type PriorityMode string

const (
	PriorityFIFO    PriorityMode = "fifo"
	PriorityByValue PriorityMode = "priority"
)

// Config holds the runtime-mutable queue settings.
type Config struct {
	MaxConcurrent int           `json:"max_concurrent"`
	MaxRetries    int           `json:"max_retries"`
	RetryDelay    time.Duration `json:"retry_delay"`
	PriorityMode  PriorityMode  `json:"priority_mode"`
	// HonorRetryAfter keeps retried jobs out of Dequeue until retry_after passes.
	HonorRetryAfter bool          `json:"honor_retry_after"`
	Retention       time.Duration `json:"retention"`
}

// DefaultConfig mirrors the configuration file defaults.
func DefaultConfig() Config {
	d := config.Default()
	return ConfigFromSettings(&d)
}

// ConfigFromSettings maps the [queue] section of the application config.
func ConfigFromSettings(cfg *config.Config) Config {
	return Config{
		MaxConcurrent:   cfg.Queue.MaxConcurrent,
		MaxRetries:      cfg.Queue.MaxRetries,
		RetryDelay:      cfg.RetryDelay(),
		PriorityMode:    PriorityMode(cfg.Queue.PriorityMode),
		HonorRetryAfter: cfg.Queue.HonorRetryAfter,
		Retention:       cfg.Retention(),
	}
}

// Validate checks a queue configuration.
func (c Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention must be >= 0")
	}
	switch c.PriorityMode {
	case PriorityFIFO, PriorityByValue:
	default:
		return fmt.Errorf("priority_mode: unsupported value %q", c.PriorityMode)
	}
	return nil
}

// Stats counts jobs per status.
type Stats struct {
	Total     int `json:"total"`
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Count returns the number of jobs in one status.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusQueued:
		return s.Queued
	case StatusRunning:
		return s.Running
	case StatusCompleted:
		return s.Completed
	case StatusFailed:
		return s.Failed
	case StatusCancelled:
		return s.Cancelled
	default:
		return 0
	}
}
