package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrRetriesExhausted is returned by Retry once retry_count reaches max_retries.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrInvalidTransition matches every *InvalidTransitionError via errors.Is.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrEmptyCommand is returned when enqueuing a job without a command.
	ErrEmptyCommand = errors.New("job command is empty")
)

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	JobID string
	From  Status
	To    Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("job %s: cannot move from %s to %s", e.JobID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
