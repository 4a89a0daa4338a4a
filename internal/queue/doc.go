// Package queue manages the lifecycle of encode jobs in memory.
//
// The Queue is the only writer of Job.Status. Jobs move through
// queued -> running -> completed|failed|cancelled, failed jobs return to
// queued through Retry until max_retries is reached, and queued or running
// jobs may be cancelled. Any other change returns an *InvalidTransitionError.
//
// Dequeue admits jobs while fewer than max_concurrent are running, choosing
// the highest priority first and the oldest within a priority. Transitions
// lock only the job they touch; an admission lock makes the concurrency check
// and the flip to running one step. Queries return copies and can run
// alongside transitions without seeing a half-applied change.
//
// The queue does not run commands. The worker package pairs it with the
// executor; tests drive it directly.
package queue
