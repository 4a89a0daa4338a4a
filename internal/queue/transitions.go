package queue

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ffcraft/internal/logging"
)

// Dequeue admits the next eligible job and marks it running. It returns false
// when max_concurrent jobs are already running or nothing is eligible.
func (q *Queue) Dequeue() (Job, bool) {
	q.admitMu.Lock()
	defer q.admitMu.Unlock()

	cfg := q.Config()
	if int(q.running.Load()) >= cfg.MaxConcurrent {
		return Job{}, false
	}

	now := q.now()
	for _, e := range q.candidates(cfg, now) {
		e.mu.Lock()
		// The snapshot may be stale; a concurrent Cancel wins.
		if e.job.Status != StatusQueued {
			e.mu.Unlock()
			continue
		}
		e.job.Status = StatusRunning
		e.job.StartedAt = now
		e.job.ProgressPercent = 0
		e.job.ProgressMessage = ""
		q.running.Add(1)
		job := e.job.clone()
		e.mu.Unlock()

		q.logger.Info("job started",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("name", job.Name),
			logging.Int("priority", job.Priority),
			logging.Int("retry_count", job.RetryCount),
		)
		return job, true
	}
	return Job{}, false
}

type candidate struct {
	e         *entry
	seq       uint64
	priority  int
	createdAt time.Time
}

func (q *Queue) candidates(cfg Config, now time.Time) []*entry {
	var list []candidate
	q.tableMu.RLock()
	for _, e := range q.jobs {
		e.mu.Lock()
		job := e.job
		e.mu.Unlock()
		if job.Status != StatusQueued {
			continue
		}
		if cfg.HonorRetryAfter && !job.RetryAfter.IsZero() && now.Before(job.RetryAfter) {
			continue
		}
		list = append(list, candidate{e: e, seq: e.seq, priority: job.Priority, createdAt: job.CreatedAt})
	}
	q.tableMu.RUnlock()

	byPriority := cfg.PriorityMode != PriorityFIFO
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if byPriority && a.priority != b.priority {
			return a.priority > b.priority
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.seq < b.seq
	})
	entries := make([]*entry, len(list))
	for i, c := range list {
		entries[i] = c.e
	}
	return entries
}

// Complete marks a running job completed.
func (q *Queue) Complete(id string) error {
	job, err := q.transition(id, StatusCompleted, func(j *Job, now time.Time) {
		j.CompletedAt = now
		j.ProgressPercent = 100
		j.Error = ""
	})
	if err != nil {
		return err
	}
	q.logger.Info("job completed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Duration("elapsed", job.CompletedAt.Sub(job.StartedAt)),
	)
	return nil
}

// Fail marks a running job failed with a diagnostic message.
func (q *Queue) Fail(id, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "job failed"
	}
	job, err := q.transition(id, StatusFailed, func(j *Job, now time.Time) {
		j.CompletedAt = now
		j.Error = message
	})
	if err != nil {
		return err
	}
	logging.WarnWithHint(q.logger, "job failed", "job_failed",
		"inspect the job error and retry once the cause is fixed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("error_message", job.Error),
		logging.Int("retry_count", job.RetryCount),
	)
	return nil
}

// Retry moves a failed job back to queued, incrementing retry_count and
// stamping retry_after. It returns ErrRetriesExhausted once retry_count has
// reached max_retries.
func (q *Queue) Retry(id string) error {
	e, ok := q.lookup(id)
	if !ok {
		return fmt.Errorf("retry %s: %w", id, ErrJobNotFound)
	}
	return q.retryEntry(id, e)
}

func (q *Queue) retryEntry(id string, e *entry) error {
	cfg := q.Config()

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return fmt.Errorf("retry %s: %w", id, ErrJobNotFound)
	}
	if !CanTransition(e.job.Status, StatusQueued) {
		from := e.job.Status
		e.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, To: StatusQueued}
	}
	if e.job.RetryCount >= cfg.MaxRetries {
		count := e.job.RetryCount
		e.mu.Unlock()
		return fmt.Errorf("retry %s after %d attempts: %w", id, count, ErrRetriesExhausted)
	}
	now := q.now()
	e.job.Status = StatusQueued
	e.job.RetryCount++
	e.job.RetryAfter = now.Add(cfg.RetryDelay)
	e.job.Error = ""
	e.job.StartedAt = time.Time{}
	e.job.CompletedAt = time.Time{}
	e.job.ProgressPercent = 0
	e.job.ProgressMessage = ""
	job := e.job.clone()
	e.mu.Unlock()

	q.logger.Info("job requeued",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("retry_count", job.RetryCount),
		logging.Time("retry_after", job.RetryAfter),
	)
	return nil
}

// Cancel stops a queued or running job. Cancelling a running job only
// changes its status; the caller owns stopping the process.
func (q *Queue) Cancel(id string) error {
	job, err := q.transition(id, StatusCancelled, func(j *Job, now time.Time) {
		j.CompletedAt = now
	})
	if err != nil {
		return err
	}
	q.logger.Info("job cancelled",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldEventType, "job_cancelled"),
	)
	return nil
}

// SetProgress records progress on a running job.
func (q *Queue) SetProgress(id string, percent float64, message string) error {
	e, ok := q.lookup(id)
	if !ok {
		return fmt.Errorf("progress %s: %w", id, ErrJobNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return fmt.Errorf("progress %s: %w", id, ErrJobNotFound)
	}
	if e.job.Status != StatusRunning {
		return fmt.Errorf("progress %s: job is %s: %w", id, e.job.Status, ErrInvalidTransition)
	}
	if percent >= 0 {
		e.job.ProgressPercent = min(percent, 100)
	}
	e.job.ProgressMessage = message
	return nil
}

// transition applies a status change guarded by the job's lock. Leaving
// running releases an admission slot.
func (q *Queue) transition(id string, to Status, apply func(*Job, time.Time)) (Job, error) {
	e, ok := q.lookup(id)
	if !ok {
		return Job{}, fmt.Errorf("%s %s: %w", to, id, ErrJobNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Job{}, fmt.Errorf("%s %s: %w", to, id, ErrJobNotFound)
	}
	from := e.job.Status
	if !CanTransition(from, to) {
		return Job{}, &InvalidTransitionError{JobID: id, From: from, To: to}
	}
	e.job.Status = to
	apply(&e.job, q.now())
	if from == StatusRunning {
		q.running.Add(-1)
	}
	return e.job.clone(), nil
}
