package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"ffcraft/internal/logging"
)

const (
	// ExitCodeTimeout marks a process killed after exceeding its timeout.
	ExitCodeTimeout = -1
	// ExitCodeNotStarted marks a run that failed before the process existed.
	ExitCodeNotStarted = -2
	// ExitCodeTerminated marks a run ended by cancellation (SIGTERM).
	ExitCodeTerminated = -15
)

const (
	defaultKillGrace  = 5 * time.Second
	defaultTailLength = 20
)

// EventType tags an Event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Terminal reports whether the event ends a run.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed || t == EventCancelled
}

// FailureKind classifies a failed run.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureTimeout    FailureKind = "timeout"
	FailureExitStatus FailureKind = "exit_status"
	FailureOS         FailureKind = "os"
)

// Result is the terminal outcome of a run.
type Result struct {
	Outcome    EventType     `json:"outcome"`
	ExitCode   int           `json:"exit_code"`
	Failure    FailureKind   `json:"failure,omitempty"`
	Message    string        `json:"message,omitempty"`
	Hint       string        `json:"hint,omitempty"`
	Duration   time.Duration `json:"duration"`
	StderrTail []string      `json:"stderr_tail,omitempty"`
	Progress   *Progress     `json:"progress,omitempty"`
}

// Event is delivered to listeners. Progress is set for progress events and
// Result for terminal events.
type Event struct {
	Type     EventType
	Progress *Progress
	Result   *Result
}

// Listener observes events. Listeners run on the goroutine calling Run, in
// emission order, and must not block for long.
type Listener func(Event)

// Options configure an Executor.
type Options struct {
	// Timeout force-kills the process once exceeded. Zero disables it.
	Timeout time.Duration
	// KillGrace is the delay between SIGTERM and SIGKILL on cancellation.
	KillGrace time.Duration
	// TotalDuration enables percent and ETA in progress events.
	TotalDuration time.Duration
	// TailLines bounds the stderr lines kept for diagnostics.
	TailLines int
	Logger    *slog.Logger
}

// Executor runs commands one at a time. Cancel is sticky: once called, the
// current run is terminated and later runs end cancelled before spawning.
type Executor struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	listeners []Listener

	cancelOnce sync.Once
	cancelCh   chan struct{}
}

// New constructs an Executor.
func New(opts Options) *Executor {
	if opts.KillGrace <= 0 {
		opts.KillGrace = defaultKillGrace
	}
	if opts.TailLines <= 0 {
		opts.TailLines = defaultTailLength
	}
	return &Executor{
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "executor"),
		cancelCh: make(chan struct{}),
	}
}

// OnEvent registers a listener.
func (e *Executor) OnEvent(l Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Cancel requests termination. Safe to call from any goroutine, any number
// of times.
func (e *Executor) Cancel() {
	e.cancelOnce.Do(func() { close(e.cancelCh) })
}

func (e *Executor) cancelRequested() bool {
	select {
	case <-e.cancelCh:
		return true
	default:
		return false
	}
}

func (e *Executor) emit(ev Event) {
	e.mu.Lock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func (e *Executor) finish(res Result) (Result, error) {
	ev := Event{Type: res.Outcome, Result: &res}
	e.emit(ev)
	return res, nil
}

// Run executes command, blocking until the process exits or is terminated.
func (e *Executor) Run(ctx context.Context, command []string) (Result, error) {
	if err := CheckArguments(command); err != nil {
		return Result{}, err
	}
	logger := logging.WithContext(ctx, e.logger)

	e.emit(Event{Type: EventStarted})
	started := time.Now()

	if e.cancelRequested() || ctx.Err() != nil {
		logger.Info("run cancelled before spawn")
		return e.finish(Result{Outcome: EventCancelled, ExitCode: ExitCodeTerminated, Message: "cancelled before start"})
	}

	if err := checkOutputWritable(command[len(command)-1]); err != nil {
		return e.finish(Result{
			Outcome:  EventFailed,
			ExitCode: ExitCodeNotStarted,
			Failure:  FailureOS,
			Message:  err.Error(),
			Hint:     "check that the output directory exists and is writable",
		})
	}

	cmd := exec.Command(command[0], command[1:]...)
	// A private process group lets signals reach helpers the binary spawns,
	// which would otherwise hold the output pipes open after a kill.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return e.finish(osFailure(fmt.Errorf("stdout pipe: %w", err)))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return e.finish(osFailure(fmt.Errorf("stderr pipe: %w", err)))
	}
	if err := cmd.Start(); err != nil {
		res := osFailure(fmt.Errorf("start %s: %w", command[0], err))
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			res.Hint = "ffmpeg binary not found; set ffmpeg.binary or run `ffcraft deps`"
		}
		logger.Warn("process failed to start", logging.Error(err))
		return e.finish(res)
	}
	logger.Debug("process started",
		logging.Int("pid", cmd.Process.Pid),
		logging.String("command", strings.Join(command, " ")),
	)

	pump := pumpLines(stdout, stderr)
	lines := pump.lines
	waitCh := make(chan error, 1)
	go func() {
		// Wait closes the pipes, so it must follow reader EOF.
		<-pump.done
		waitCh <- cmd.Wait()
	}()

	var (
		stderrTail = &tail{n: e.opts.TailLines}
		last       *Progress
		reason     string
		timeoutC   <-chan time.Time
		killC      <-chan time.Time
		killTimer  *time.Timer
		cancelC    = (<-chan struct{})(e.cancelCh)
		doneC      = ctx.Done()
		waitErr    error
	)
	if e.opts.Timeout > 0 {
		timer := time.NewTimer(e.opts.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	handle := func(line string) {
		if p, ok := ParseProgressLine(line, e.opts.TotalDuration); ok {
			last = &p
			e.emit(Event{Type: EventProgress, Progress: &p})
			return
		}
		stderrTail.add(line)
	}
	terminate := func(why string) {
		if reason != "" {
			return
		}
		reason = why
		logger.Info("terminating process", logging.String("reason", why))
		signalGroup(cmd.Process, unix.SIGTERM)
		killTimer = time.NewTimer(e.opts.KillGrace)
		killC = killTimer.C
	}
	defer func() {
		if killTimer != nil {
			killTimer.Stop()
		}
	}()

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			handle(line)
		case <-cancelC:
			cancelC = nil
			terminate("cancelled")
		case <-doneC:
			doneC = nil
			terminate("cancelled")
		case <-timeoutC:
			timeoutC = nil
			if reason == "" {
				reason = "timeout"
			}
			logger.Warn("process exceeded timeout; killing", logging.Duration("timeout", e.opts.Timeout))
			signalGroup(cmd.Process, unix.SIGKILL)
		case <-killC:
			killC = nil
			logger.Warn("process ignored SIGTERM; killing")
			signalGroup(cmd.Process, unix.SIGKILL)
		case waitErr = <-waitCh:
			break loop
		}
	}
	if lines != nil {
		for line := range lines {
			handle(line)
		}
	}

	res := Result{
		Duration:   time.Since(started),
		StderrTail: stderrTail.snapshot(),
		Progress:   last,
	}
	switch {
	case waitErr == nil:
		res.Outcome = EventCompleted
	case reason == "timeout":
		res.Outcome = EventFailed
		res.Failure = FailureTimeout
		res.ExitCode = ExitCodeTimeout
		res.Message = fmt.Sprintf("process killed after exceeding timeout of %s", e.opts.Timeout)
		res.Hint = "raise ffmpeg.timeout_seconds or set it to 0 for long encodes"
	case reason == "cancelled":
		res.Outcome = EventCancelled
		res.ExitCode = ExitCodeTerminated
		res.Message = "terminated by signal"
	default:
		res.Outcome = EventFailed
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Failure = FailureExitStatus
			res.ExitCode = exitCode(exitErr)
			res.Message = fmt.Sprintf("%s exited with status %d", filepath.Base(command[0]), res.ExitCode)
		} else {
			res.Failure = FailureOS
			res.ExitCode = ExitCodeNotStarted
			res.Message = waitErr.Error()
		}
		res.Hint = Diagnose(res.StderrTail)
	}

	logger.Info("process finished",
		logging.String("outcome", string(res.Outcome)),
		logging.Int("exit_code", res.ExitCode),
		logging.Duration("duration", res.Duration),
	)
	return e.finish(res)
}

// signalGroup delivers sig to the process group led by p, falling back to
// the process itself when the group is already gone.
func signalGroup(p *os.Process, sig unix.Signal) {
	if err := unix.Kill(-p.Pid, sig); err != nil {
		_ = p.Signal(sig)
	}
}

func exitCode(err *exec.ExitError) int {
	if status, ok := err.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -int(status.Signal())
	}
	return err.ExitCode()
}

func osFailure(err error) Result {
	return Result{
		Outcome:  EventFailed,
		ExitCode: ExitCodeNotStarted,
		Failure:  FailureOS,
		Message:  err.Error(),
	}
}

// checkOutputWritable verifies a local output can be created. URLs, pipes
// and stdout are not checked.
func checkOutputWritable(output string) error {
	output = strings.TrimSpace(output)
	if output == "" || output == "-" || strings.Contains(output, "://") || strings.HasPrefix(output, "pipe:") {
		return nil
	}
	if info, err := os.Stat(output); err == nil && !info.IsDir() {
		if err := unix.Access(output, unix.W_OK); err != nil {
			return fmt.Errorf("output %s is not writable: %w", output, err)
		}
		return nil
	}
	dir := filepath.Dir(output)
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	return nil
}
