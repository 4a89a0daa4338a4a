package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ffcraft/internal/config"
	"ffcraft/internal/executor"
	"ffcraft/internal/logging"
	"ffcraft/internal/probe"
	"ffcraft/internal/queue"
)

// DurationFunc reports the media duration of an input path.
type DurationFunc func(ctx context.Context, path string) (time.Duration, error)

// Event is delivered to observers for every executor event of every job.
type Event struct {
	JobID    string
	Name     string
	Type     executor.EventType
	Progress *executor.Progress
	Result   *executor.Result
}

// Observer receives dispatcher events. Observers are called from job
// goroutines and must be safe for concurrent use.
type Observer func(Event)

// Dispatcher runs queued jobs until stopped.
type Dispatcher struct {
	cfg    *config.Config
	queue  *queue.Queue
	logger *slog.Logger

	pollInterval    time.Duration
	cleanupInterval time.Duration
	autoRetry       bool
	duration        DurationFunc
	observers       []Observer

	wake chan struct{}

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	active   map[string]*executor.Executor
	inflight int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDurationProbe replaces the ffprobe-backed duration lookup.
func WithDurationProbe(fn DurationFunc) Option {
	return func(d *Dispatcher) {
		d.duration = fn
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// WithAutoRetry overrides worker.auto_retry from the config.
func WithAutoRetry(enabled bool) Option {
	return func(d *Dispatcher) {
		d.autoRetry = enabled
	}
}

// New constructs a dispatcher over q.
func New(cfg *config.Config, q *queue.Queue, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:             cfg,
		queue:           q,
		logger:          logging.NewComponentLogger(logger, "worker"),
		pollInterval:    cfg.PollInterval(),
		cleanupInterval: cfg.CleanupInterval(),
		autoRetry:       cfg.Worker.AutoRetry,
		wake:            make(chan struct{}, 1),
		active:          make(map[string]*executor.Executor),
	}
	if d.pollInterval <= 0 {
		d.pollInterval = 500 * time.Millisecond
	}
	ffprobe := cfg.FFmpeg.FFprobeBinary
	d.duration = func(ctx context.Context, path string) (time.Duration, error) {
		return probe.Duration(ctx, ffprobe, path)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins dispatching in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("dispatcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	d.wg.Add(1)
	go d.loop(runCtx)
	if d.cleanupInterval > 0 {
		d.wg.Add(1)
		go d.cleanupLoop(runCtx)
	}
	d.logger.Info("dispatcher started",
		logging.Int("max_concurrent", d.queue.Config().MaxConcurrent),
		logging.Bool("auto_retry", d.autoRetry),
	)
	return nil
}

// Stop cancels running jobs and waits for all goroutines to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

// Submit enqueues a job and wakes the dispatch loop.
func (d *Dispatcher) Submit(spec queue.JobSpec) (queue.Job, error) {
	job, err := d.queue.Enqueue(spec)
	if err != nil {
		return queue.Job{}, err
	}
	d.notify()
	return job, nil
}

// Cancel cancels a job in the queue and, when it is running, terminates its
// process.
func (d *Dispatcher) Cancel(id string) error {
	if err := d.queue.Cancel(id); err != nil {
		return err
	}
	d.mu.Lock()
	exec := d.active[id]
	d.mu.Unlock()
	if exec != nil {
		exec.Cancel()
	}
	return nil
}

// Idle reports whether no job is queued, running or being finalized.
func (d *Dispatcher) Idle() bool {
	d.mu.Lock()
	inflight := d.inflight
	d.mu.Unlock()
	if inflight > 0 {
		return false
	}
	stats := d.queue.Stats()
	return stats.Queued == 0 && stats.Running == 0
}

// Wait blocks until the dispatcher is idle or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		if d.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for queue: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := d.queue.Dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
			case <-time.After(d.pollInterval):
			}
			continue
		}

		d.mu.Lock()
		d.inflight++
		d.mu.Unlock()
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				d.mu.Lock()
				d.inflight--
				d.mu.Unlock()
				d.notify()
			}()
			d.runJob(ctx, job)
		}()
	}
}

func (d *Dispatcher) cleanupLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.queue.Cleanup()
		}
	}
}

func (d *Dispatcher) publish(ev Event) {
	for _, o := range d.observers {
		o(ev)
	}
}
