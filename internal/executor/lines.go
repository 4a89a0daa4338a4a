package executor

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

const maxLineBytes = 1 << 20

// scanCRLF splits on either carriage return or newline; ffmpeg terminates
// in-place stats updates with \r.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type linePump struct {
	lines <-chan string
	// done closes once every stream has reached EOF.
	done <-chan struct{}
}

// pumpLines reads each stream on its own goroutine and merges non-empty lines
// into one channel, closed after every stream reaches EOF.
func pumpLines(streams ...io.Reader) linePump {
	lines := make(chan string, 64)
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, r := range streams {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			scanner.Split(scanCRLF)
			for scanner.Scan() {
				if line := string(bytes.TrimSpace(scanner.Bytes())); line != "" {
					lines <- line
				}
			}
			// Keep draining so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, r)
		}(r)
	}
	go func() {
		wg.Wait()
		close(done)
		close(lines)
	}()
	return linePump{lines: lines, done: done}
}

// tail keeps the last n lines.
type tail struct {
	n     int
	lines []string
}

func (t *tail) add(line string) {
	if t.n <= 0 {
		return
	}
	if len(t.lines) == t.n {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.n-1]
	}
	t.lines = append(t.lines, line)
}

func (t *tail) snapshot() []string {
	return append([]string(nil), t.lines...)
}
