package queue

import (
	"time"

	"ffcraft/internal/logging"
)

// Cleanup removes completed and failed jobs that finished before the
// configured retention window. Cancelled jobs are kept for inspection.
func (q *Queue) Cleanup() int {
	return q.CleanupBefore(q.now().Add(-q.Config().Retention))
}

// CleanupBefore removes completed and failed jobs finished before cutoff.
func (q *Queue) CleanupBefore(cutoff time.Time) int {
	q.tableMu.Lock()
	removed := 0
	for id, e := range q.jobs {
		e.mu.Lock()
		if expired(e.job, cutoff) {
			e.removed = true
			delete(q.jobs, id)
			removed++
		}
		e.mu.Unlock()
	}
	q.tableMu.Unlock()

	if removed > 0 {
		q.logger.Info("expired jobs removed",
			logging.Int("removed", removed),
			logging.Time("cutoff", cutoff),
		)
	}
	return removed
}

func expired(job Job, cutoff time.Time) bool {
	if job.Status != StatusCompleted && job.Status != StatusFailed {
		return false
	}
	return !job.CompletedAt.IsZero() && job.CompletedAt.Before(cutoff)
}
