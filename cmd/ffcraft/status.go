package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ffcraft/internal/executor"
	"ffcraft/internal/queue"
	"ffcraft/internal/worker"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
)

var titleCaser = cases.Title(language.English)

func statusLabel(status queue.Status) string {
	return titleCaser.String(string(status))
}

func colorizeStatus(status queue.Status, colorize bool) string {
	label := statusLabel(status)
	if !colorize {
		return label
	}
	switch status {
	case queue.StatusCompleted:
		return ansiGreen + label + ansiReset
	case queue.StatusFailed:
		return ansiRed + label + ansiReset
	case queue.StatusCancelled:
		return ansiYellow + label + ansiReset
	case queue.StatusRunning:
		return ansiBlue + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// progressPrinter redraws one status line per progress event on a terminal.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) observe(ev worker.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case ev.Type == executor.EventProgress && ev.Progress != nil:
		fmt.Fprintf(p.out, "\r\033[K%s[%s] %s", ev.Name, shortID(ev.JobID), formatProgress(*ev.Progress))
	case ev.Type.Terminal() && ev.Result != nil:
		fmt.Fprintf(p.out, "\r\033[K%s[%s] %s in %s\n", ev.Name, shortID(ev.JobID),
			ev.Type, ev.Result.Duration.Truncate(time.Millisecond))
	}
}

func formatProgress(p executor.Progress) string {
	parts := make([]string, 0, 4)
	if p.Percent >= 0 {
		parts = append(parts, fmt.Sprintf("%5.1f%%", p.Percent))
	}
	parts = append(parts, "time="+p.Elapsed.Truncate(time.Second).String())
	if p.Speed > 0 {
		parts = append(parts, fmt.Sprintf("speed=%.2fx", p.Speed))
	}
	if p.ETA > 0 {
		parts = append(parts, "eta="+p.ETA.Truncate(time.Second).String())
	}
	return strings.Join(parts, " ")
}
