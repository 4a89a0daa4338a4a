package executor

import "strings"

var hints = []struct {
	needles []string
	hint    string
}{
	{[]string{"Unknown encoder", "Encoder not found"}, "encoder is not available in this ffmpeg build; run `ffcraft caps` to list encoders"},
	{[]string{"already exists. Exiting", "Not overwriting"}, "output already exists; set global_options.overwrite to replace it"},
	{[]string{"Device creation failed", "Failed to initialise VAAPI", "Cannot load libcuda", "No device available"}, "hardware device is unavailable; check global_options.hwaccel family and device"},
	{[]string{"No such file or directory"}, "an input or output path does not exist"},
	{[]string{"Permission denied"}, "check file permissions on the input and output paths"},
	{[]string{"Invalid argument", "Error parsing", "Unrecognized option", "Option not found"}, "ffmpeg rejected an option; run `ffcraft validate` on the job"},
}

// Diagnose returns a next-step hint for known ffmpeg failure messages in
// stderr, or "" when none match. Later lines take precedence.
func Diagnose(stderr []string) string {
	for i := len(stderr) - 1; i >= 0; i-- {
		for _, h := range hints {
			for _, needle := range h.needles {
				if strings.Contains(stderr[i], needle) {
					return h.hint
				}
			}
		}
	}
	return ""
}
