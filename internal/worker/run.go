package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ffcraft/internal/executor"
	"ffcraft/internal/logging"
	"ffcraft/internal/queue"
)

func (d *Dispatcher) runJob(ctx context.Context, job queue.Job) {
	jobCtx := logging.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, d.logger).With(logging.String("name", job.Name))

	total := job.TotalDuration
	if total <= 0 {
		total = d.probeDuration(jobCtx, logger, job.Command)
	}

	exec := executor.New(executor.Options{
		Timeout:       d.cfg.Timeout(),
		KillGrace:     d.cfg.KillGrace(),
		TotalDuration: total,
		Logger:        logger,
	})
	sampler := logging.NewProgressSampler(10)
	exec.OnEvent(func(ev executor.Event) {
		if ev.Type == executor.EventProgress && ev.Progress != nil {
			d.recordProgress(logger, sampler, job.ID, *ev.Progress)
		}
		d.publish(Event{JobID: job.ID, Name: job.Name, Type: ev.Type, Progress: ev.Progress, Result: ev.Result})
	})

	d.mu.Lock()
	d.active[job.ID] = exec
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.active, job.ID)
		d.mu.Unlock()
	}()

	// A Cancel between Dequeue and registration found no executor to stop.
	if current, err := d.queue.Get(job.ID); err == nil && current.Status != queue.StatusRunning {
		exec.Cancel()
	}

	result, err := exec.Run(jobCtx, job.Command)
	if err != nil {
		d.fail(logger, job.ID, fmt.Sprintf("command rejected: %v", err), false)
		return
	}

	switch result.Outcome {
	case executor.EventCompleted:
		if err := d.queue.Complete(job.ID); err != nil {
			logger.Warn("complete job failed", logging.Error(err))
		}
	case executor.EventCancelled:
		// Cancel through the dispatcher already moved the job; shutdown did not.
		if err := d.queue.Cancel(job.ID); err != nil && !errors.Is(err, queue.ErrInvalidTransition) {
			logger.Warn("cancel job failed", logging.Error(err))
		}
	default:
		d.fail(logger, job.ID, failureMessage(result), result.Failure == executor.FailureExitStatus)
	}
}

func (d *Dispatcher) fail(logger *slog.Logger, id, message string, retryable bool) {
	if err := d.queue.Fail(id, message); err != nil {
		logger.Warn("fail job failed", logging.Error(err))
		return
	}
	if !retryable || !d.autoRetry {
		return
	}
	err := d.queue.Retry(id)
	switch {
	case err == nil:
		logger.Info("job scheduled for retry")
	case errors.Is(err, queue.ErrRetriesExhausted):
		logger.Warn("job retries exhausted",
			logging.String(logging.FieldEventType, "job_retries_exhausted"),
			logging.String(logging.FieldErrorHint, "fix the failure and resubmit the job"),
		)
	default:
		logger.Warn("retry job failed", logging.Error(err))
	}
}

func (d *Dispatcher) recordProgress(logger *slog.Logger, sampler *logging.ProgressSampler, id string, p executor.Progress) {
	message := progressMessage(p)
	if err := d.queue.SetProgress(id, p.Percent, message); err != nil {
		return
	}
	if sampler.ShouldLog(p.Percent) {
		logger.Info("job progress",
			logging.Float64("percent", p.Percent),
			logging.String("detail", message),
		)
	}
}

func (d *Dispatcher) probeDuration(ctx context.Context, logger *slog.Logger, command []string) time.Duration {
	path := inputPath(command)
	if path == "" || d.duration == nil {
		return 0
	}
	total, err := d.duration(ctx, path)
	if err != nil {
		logger.Debug("input duration unavailable; progress will omit percent",
			logging.String("input", path),
			logging.Error(err),
		)
		return 0
	}
	return total
}

// inputPath returns the first "-i" argument that names a local file.
func inputPath(command []string) string {
	for i := 1; i < len(command)-1; i++ {
		if command[i] != "-i" {
			continue
		}
		path := command[i+1]
		if path == "-" || strings.HasPrefix(path, "pipe:") || strings.Contains(path, "://") {
			return ""
		}
		return path
	}
	return ""
}

func progressMessage(p executor.Progress) string {
	parts := make([]string, 0, 4)
	if p.Frame > 0 {
		parts = append(parts, fmt.Sprintf("frame=%d", p.Frame))
	}
	if p.Elapsed > 0 {
		parts = append(parts, "time="+p.Elapsed.Truncate(time.Second).String())
	}
	if p.Speed > 0 {
		parts = append(parts, fmt.Sprintf("speed=%.2gx", p.Speed))
	}
	if p.ETA > 0 {
		parts = append(parts, "eta="+p.ETA.Truncate(time.Second).String())
	}
	return strings.Join(parts, " ")
}

func failureMessage(result executor.Result) string {
	message := strings.TrimSpace(result.Message)
	if message == "" {
		message = fmt.Sprintf("ffmpeg exited with code %d", result.ExitCode)
	}
	if result.Hint != "" {
		message += " (" + result.Hint + ")"
	}
	return message
}
