package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveFFprobe reports the ffprobe binary paired with an ffmpeg command.
//
// Static ffmpeg builds ship ffprobe alongside ffmpeg, and a custom ffmpeg
// path usually means the system copy is the wrong version. The sibling of the
// resolved ffmpeg binary is preferred; otherwise "ffprobe" is resolved from PATH.
func ResolveFFprobe(ffmpegCommand string) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Reads input durations for progress percentages",
		Optional:    true,
	}

	if binary := strings.TrimSpace(ffmpegCommand); binary != "" {
		if resolved, err := exec.LookPath(binary); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), "ffprobe")
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		}
	}

	if path, err := exec.LookPath("ffprobe"); err == nil {
		result.Command = path
		result.Available = true
		return result
	}

	result.Command = "ffprobe"
	result.Detail = fmt.Sprintf("binary %q not found", "ffprobe")
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
