package executor

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ffcraft/internal/testsupport"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	return testsupport.WriteScript(t, t.TempDir(), "fake-ffmpeg", body+"\n")
}

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newRecorded(opts Options) (*Executor, *recorder) {
	exec := New(opts)
	rec := &recorder{}
	exec.OnEvent(rec.listen)
	return exec, rec
}

func outputPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "out.mkv")
}

func TestRunEmptyCommand(t *testing.T) {
	exec, rec := newRecorded(Options{})
	for _, cmd := range [][]string{nil, {}, {"  "}} {
		if _, err := exec.Run(context.Background(), cmd); !errors.Is(err, ErrEmptyCommand) {
			t.Fatalf("Run(%q) error = %v, want ErrEmptyCommand", cmd, err)
		}
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events, got %v", rec.types())
	}
}

func TestRunRejectsShellMetacharactersBeforeSpawn(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	script := writeScript(t, "touch "+marker)

	for _, bad := range []string{"a;b", "a&b", "a|b", "a`b", "$HOME", "a(b", "a)b"} {
		exec, rec := newRecorded(Options{})
		_, err := exec.Run(context.Background(), []string{script, "-i", bad, outputPath(t)})
		var violation *SecurityViolationError
		if !errors.As(err, &violation) {
			t.Fatalf("arg %q: expected SecurityViolationError, got %v", bad, err)
		}
		if violation.Index != 2 {
			t.Fatalf("arg %q: violation index = %d", bad, violation.Index)
		}
		if len(rec.events) != 0 {
			t.Fatalf("arg %q: expected no events, got %v", bad, rec.types())
		}
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("process was spawned despite a security violation")
	}
}

func TestRunCompletedWithProgress(t *testing.T) {
	script := writeScript(t, `
printf 'Input #0, matroska\n' >&2
printf 'frame=  10 fps=5.0 q=28.0 size=     256kB time=00:00:30.00 bitrate=  69.9kbits/s speed=1.5x\r' >&2
printf 'frame=  20 fps=6.0 q=28.0 size=     512kB time=00:01:00.00 bitrate=  69.9kbits/s speed=2.0x\r' >&2
echo done >&2
exit 0`)
	exec, rec := newRecorded(Options{TotalDuration: 120 * time.Second})

	res, err := exec.Run(context.Background(), []string{script, "-i", "in.mkv", outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventCompleted || res.ExitCode != 0 || res.Failure != FailureNone {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := []EventType{EventStarted, EventProgress, EventProgress, EventCompleted}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	last := rec.events[2].Progress
	if last == nil || last.Frame != 20 || math.Abs(last.Percent-50) > 1e-9 {
		t.Fatalf("unexpected last progress: %+v", last)
	}
	if res.Progress == nil || res.Progress.Frame != 20 {
		t.Fatalf("result should carry the last progress, got %+v", res.Progress)
	}
	if len(res.StderrTail) != 2 || res.StderrTail[0] != "Input #0, matroska" || res.StderrTail[1] != "done" {
		t.Fatalf("unexpected tail: %q", res.StderrTail)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "Unknown encoder 'libfoo'" >&2; exit 3`)
	exec, rec := newRecorded(Options{})

	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventFailed || res.Failure != FailureExitStatus || res.ExitCode != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Hint, "encoder") {
		t.Fatalf("expected encoder hint, got %q", res.Hint)
	}
	if types := rec.types(); types[len(types)-1] != EventFailed {
		t.Fatalf("expected failed terminal event, got %v", types)
	}
}

func TestRunTimeoutKills(t *testing.T) {
	script := writeScript(t, "exec sleep 10")
	exec, _ := newRecorded(Options{Timeout: 200 * time.Millisecond})

	start := time.Now()
	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not kill the process promptly")
	}
	if res.Outcome != EventFailed || res.Failure != FailureTimeout || res.ExitCode != ExitCodeTimeout {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Message, "timeout") {
		t.Fatalf("expected diagnostic message, got %q", res.Message)
	}
}

func TestCancelRunningProcess(t *testing.T) {
	script := writeScript(t, "exec sleep 10")
	exec, rec := newRecorded(Options{})
	exec.OnEvent(func(ev Event) {
		if ev.Type == EventStarted {
			go func() {
				time.Sleep(100 * time.Millisecond)
				exec.Cancel()
				exec.Cancel()
			}()
		}
	})

	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventCancelled || res.ExitCode != ExitCodeTerminated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if types := rec.types(); types[0] != EventStarted || types[len(types)-1] != EventCancelled {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestCancelEscalatesToKill(t *testing.T) {
	script := writeScript(t, "trap '' TERM\nexec sleep 10")
	exec, _ := newRecorded(Options{KillGrace: 200 * time.Millisecond})
	go func() {
		time.Sleep(200 * time.Millisecond)
		exec.Cancel()
	}()

	start := time.Now()
	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("process ignoring SIGTERM was not killed")
	}
	if res.Outcome != EventCancelled || res.ExitCode != ExitCodeTerminated {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestTerminationReachesChildProcesses(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		cancel  bool
		outcome EventType
		code    int
	}{
		{"timeout", Options{Timeout: 200 * time.Millisecond}, false, EventFailed, ExitCodeTimeout},
		{"cancel", Options{KillGrace: 100 * time.Millisecond}, true, EventCancelled, ExitCodeTerminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// sleep runs as a child of the shell and inherits its stderr.
			script := writeScript(t, "sleep 10")
			exec, _ := newRecorded(tt.opts)
			if tt.cancel {
				go func() {
					time.Sleep(200 * time.Millisecond)
					exec.Cancel()
				}()
			}

			start := time.Now()
			res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if elapsed := time.Since(start); elapsed > 3*time.Second {
				t.Fatalf("Run returned after %s; child process kept the pipes open", elapsed)
			}
			if res.Outcome != tt.outcome || res.ExitCode != tt.code {
				t.Fatalf("unexpected result: %+v", res)
			}
		})
	}
}

func TestCleanExitAfterCancelIsCompleted(t *testing.T) {
	script := writeScript(t, "trap 'exit 0' TERM\nsleep 10 &\nwait")
	exec, _ := newRecorded(Options{KillGrace: 2 * time.Second})
	go func() {
		time.Sleep(200 * time.Millisecond)
		exec.Cancel()
	}()

	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventCompleted || res.ExitCode != 0 {
		t.Fatalf("expected the real exit status to win, got %+v", res)
	}
}

func TestCancelBeforeRun(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	script := writeScript(t, "touch "+marker)
	exec, rec := newRecorded(Options{})
	exec.Cancel()

	res, err := exec.Run(context.Background(), []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventCancelled || res.ExitCode != ExitCodeTerminated {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := rec.types()
	if len(got) != 2 || got[0] != EventStarted || got[1] != EventCancelled {
		t.Fatalf("unexpected events: %v", got)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("process spawned after pre-run cancel")
	}
}

func TestContextCancellation(t *testing.T) {
	script := writeScript(t, "exec sleep 10")
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	res, err := New(Options{}).Run(ctx, []string{script, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventCancelled {
		t.Fatalf("expected cancelled outcome, got %+v", res)
	}
}

func TestRunMissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-ffmpeg")
	res, err := New(Options{}).Run(context.Background(), []string{missing, outputPath(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != EventFailed || res.Failure != FailureOS || res.ExitCode != ExitCodeNotStarted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Hint == "" {
		t.Fatal("expected hint for missing binary")
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	script := writeScript(t, "touch "+marker)
	out := filepath.Join(t.TempDir(), "missing-dir", "out.mkv")

	res, err := New(Options{}).Run(context.Background(), []string{script, out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failure != FailureOS || !strings.Contains(res.Message, "not writable") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("process spawned with an unwritable output")
	}
}

func TestCheckOutputWritableSkipsNonFiles(t *testing.T) {
	for _, out := range []string{"-", "pipe:1", "rtmp://live/app/key", "/dev/null"} {
		if err := checkOutputWritable(out); err != nil {
			t.Errorf("checkOutputWritable(%q) = %v", out, err)
		}
	}
}
