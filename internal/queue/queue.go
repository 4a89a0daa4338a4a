package queue

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ffcraft/internal/logging"
)

// Queue is an in-memory, concurrency-bounded job table.
type Queue struct {
	// tableMu guards the jobs map itself. Transitions take the read side
	// and the job's own lock; Enqueue and Cleanup take the write side.
	tableMu sync.RWMutex
	jobs    map[string]*entry
	seq     uint64

	// admitMu serializes Dequeue so the running check and the flip happen
	// together. running is only incremented while admitMu is held.
	admitMu sync.Mutex
	running atomic.Int64

	cfgMu sync.RWMutex
	cfg   Config

	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type entry struct {
	mu  sync.Mutex
	seq uint64
	job Job
	// removed is set under mu when cleanup drops the entry from the table,
	// so a transition holding a stale pointer sees the job as gone.
	removed bool
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}

// WithLogger attaches a logger; the queue adds its component attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logging.NewComponentLogger(logger, "queue")
	}
}

// New constructs an empty queue.
func New(cfg Config, opts ...Option) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("queue config: %w", err)
	}
	q := &Queue{
		jobs:   make(map[string]*entry),
		cfg:    cfg,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logging.NewComponentLogger(nil, "queue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Config returns the current settings.
func (q *Queue) Config() Config {
	q.cfgMu.RLock()
	defer q.cfgMu.RUnlock()
	return q.cfg
}

// UpdateConfig swaps the settings. Lowering max_concurrent never stops
// running jobs; it only delays further admissions.
func (q *Queue) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}
	q.cfgMu.Lock()
	q.cfg = cfg
	q.cfgMu.Unlock()
	q.logger.Info("queue config updated",
		logging.Int("max_concurrent", cfg.MaxConcurrent),
		logging.Int("max_retries", cfg.MaxRetries),
		logging.String("priority_mode", string(cfg.PriorityMode)),
	)
	return nil
}

// Enqueue adds a job in the queued state.
func (q *Queue) Enqueue(spec JobSpec) (Job, error) {
	if len(spec.Command) == 0 || strings.TrimSpace(spec.Command[0]) == "" {
		return Job{}, ErrEmptyCommand
	}
	job := Job{
		ID:            q.newID(),
		Name:          strings.TrimSpace(spec.Name),
		Command:       append([]string(nil), spec.Command...),
		Status:        StatusQueued,
		Priority:      spec.Priority,
		CreatedAt:     q.now(),
		TotalDuration: spec.TotalDuration,
	}
	if job.Name == "" {
		job.Name = job.ID
	}

	q.tableMu.Lock()
	if _, exists := q.jobs[job.ID]; exists {
		q.tableMu.Unlock()
		return Job{}, fmt.Errorf("enqueue: duplicate job id %s", job.ID)
	}
	q.seq++
	q.jobs[job.ID] = &entry{seq: q.seq, job: job}
	q.tableMu.Unlock()

	q.logger.Info("job queued",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("name", job.Name),
		logging.Int("priority", job.Priority),
	)
	return job.clone(), nil
}

// Get returns a copy of one job.
func (q *Queue) Get(id string) (Job, error) {
	e, ok := q.lookup(id)
	if !ok {
		return Job{}, fmt.Errorf("get %s: %w", id, ErrJobNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.clone(), nil
}

// List returns copies of jobs ordered by creation. With statuses given, only
// matching jobs are returned.
func (q *Queue) List(statuses ...Status) []Job {
	want := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	type row struct {
		seq uint64
		job Job
	}
	var rows []row
	q.tableMu.RLock()
	for _, e := range q.jobs {
		e.mu.Lock()
		if len(want) == 0 {
			rows = append(rows, row{seq: e.seq, job: e.job.clone()})
		} else if _, ok := want[e.job.Status]; ok {
			rows = append(rows, row{seq: e.seq, job: e.job.clone()})
		}
		e.mu.Unlock()
	}
	q.tableMu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].job.CreatedAt.Equal(rows[j].job.CreatedAt) {
			return rows[i].job.CreatedAt.Before(rows[j].job.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
	jobs := make([]Job, len(rows))
	for i, r := range rows {
		jobs[i] = r.job
	}
	return jobs
}

// Stats counts jobs per status.
func (q *Queue) Stats() Stats {
	var stats Stats
	q.tableMu.RLock()
	defer q.tableMu.RUnlock()
	for _, e := range q.jobs {
		e.mu.Lock()
		status := e.job.Status
		e.mu.Unlock()
		stats.Total++
		switch status {
		case StatusQueued:
			stats.Queued++
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// RunningCount returns the number of jobs admitted and not yet finished.
func (q *Queue) RunningCount() int {
	return int(q.running.Load())
}

func (q *Queue) lookup(id string) (*entry, bool) {
	q.tableMu.RLock()
	defer q.tableMu.RUnlock()
	e, ok := q.jobs[id]
	return e, ok
}
