package executor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Progress is derived from one ffmpeg stats line.
type Progress struct {
	Frame     int64         `json:"frame"`
	FPS       float64       `json:"fps"`
	Speed     float64       `json:"speed"`
	Elapsed   time.Duration `json:"elapsed"`
	SizeBytes int64         `json:"size_bytes"`
	Bitrate   string        `json:"bitrate,omitempty"`
	// Percent is -1 when the total duration is unknown.
	Percent float64 `json:"percent"`
	// ETA is 0 when the total duration or speed is unknown.
	ETA time.Duration `json:"eta"`
}

var (
	frameRegex   = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRegex     = regexp.MustCompile(`fps=\s*([\d.]+)`)
	sizeRegex    = regexp.MustCompile(`size=\s*(\d+)\s*(kB|KiB|mB|MB|MiB|B)?`)
	timeRegex    = regexp.MustCompile(`time=\s*(-?\d+):(\d+):(\d+(?:\.\d+)?)`)
	bitrateRegex = regexp.MustCompile(`bitrate=\s*([\d.]+\s*[kmg]?bits/s)`)
	speedRegex   = regexp.MustCompile(`speed=\s*([\d.]+)x`)
)

// IsProgressLine reports whether line is an ffmpeg stats line. Video encodes
// carry a frame counter; audio-only encodes start at size=.
func IsProgressLine(line string) bool {
	if strings.Contains(line, "frame=") {
		return true
	}
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "size=") && strings.Contains(trimmed, "time=")
}

// ParseProgressLine extracts progress from a stats line. total is the
// expected media duration; zero leaves Percent at -1.
func ParseProgressLine(line string, total time.Duration) (Progress, bool) {
	if !IsProgressLine(line) {
		return Progress{}, false
	}
	p := Progress{Percent: -1}

	if m := frameRegex.FindStringSubmatch(line); m != nil {
		p.Frame, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := fpsRegex.FindStringSubmatch(line); m != nil {
		p.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sizeRegex.FindStringSubmatch(line); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		p.SizeBytes = n * sizeMultiplier(m[2])
	}
	if m := timeRegex.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.ParseFloat(m[3], 64)
		elapsed := time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs*float64(time.Second))
		if elapsed > 0 {
			p.Elapsed = elapsed
		}
	}
	if m := bitrateRegex.FindStringSubmatch(line); m != nil {
		p.Bitrate = strings.ReplaceAll(m[1], " ", "")
	}
	if m := speedRegex.FindStringSubmatch(line); m != nil {
		p.Speed, _ = strconv.ParseFloat(m[1], 64)
	}

	if total > 0 {
		p.Percent = float64(p.Elapsed) / float64(total) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
		if p.Speed > 0 && p.Elapsed < total {
			remaining := float64(total-p.Elapsed) / p.Speed
			p.ETA = time.Duration(remaining)
		}
	}
	return p, true
}

func sizeMultiplier(unit string) int64 {
	switch unit {
	case "kB":
		return 1000
	case "KiB":
		return 1024
	case "mB", "MB":
		return 1000 * 1000
	case "MiB":
		return 1024 * 1024
	default:
		return 1
	}
}
