package executor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCommand is returned when Run receives no binary to execute.
var ErrEmptyCommand = errors.New("empty command")

const shellMetacharacters = ";&|`$()"

// SecurityViolationError reports an argument that contains a shell
// metacharacter.
type SecurityViolationError struct {
	Index int
	Arg   string
	Char  rune
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("argument %d (%q) contains shell metacharacter %q", e.Index, e.Arg, e.Char)
}

// CheckArguments screens every token, binary included.
func CheckArguments(command []string) error {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return ErrEmptyCommand
	}
	for i, arg := range command {
		if idx := strings.IndexAny(arg, shellMetacharacters); idx >= 0 {
			return &SecurityViolationError{Index: i, Arg: arg, Char: rune(arg[idx])}
		}
	}
	return nil
}
