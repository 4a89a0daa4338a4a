// Package validation checks a builder.State before it is rendered.
//
// Validation never fails with an error: every rule contributes to a Result
// holding fatal errors and non-blocking warnings. The package is pure. It
// does not touch the filesystem, and installed-ffmpeg checks only run when a
// Capabilities lookup is supplied.
package validation

import (
	"fmt"
	"strings"
)

// Issue is one validation finding anchored to a field path such as
// "video_codec.crf" or "stream_mappings[2]".
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// Result accumulates findings. Valid is the logical AND of every merged result.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// NewResult returns an empty, valid result.
func NewResult() Result {
	return Result{Valid: true}
}

// AddError records a fatal issue and marks the result invalid.
func (r *Result) AddError(field, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// AddWarning records a non-blocking issue.
func (r *Result) AddWarning(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge folds other into r.
func (r *Result) Merge(other Result) {
	r.Valid = r.Valid && other.Valid
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Error summarises the fatal issues, or returns "" for a valid result.
func (r Result) Error() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}
