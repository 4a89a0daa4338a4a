// Package executor runs one rendered ffmpeg command as a supervised child
// process.
//
// Commands are never passed through a shell: arguments are screened for shell
// metacharacters and handed to the process individually. While the process
// runs, stdout and stderr are read by separate goroutines into one ordered
// line channel; stats lines become progress events. Cancel and context
// cancellation send SIGTERM and escalate to SIGKILL after a grace period. A
// timeout kills immediately.
//
// Run only returns an error for contract violations detected before spawn
// (ErrEmptyCommand, *SecurityViolationError). Every other outcome is reported
// through the returned Result and the terminal event.
package executor
