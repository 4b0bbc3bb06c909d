package log

import (
	"errors"
	"fmt"
)

// ErrLogOutputRequired is used when no log output is specified.
var ErrLogOutputRequired = errors.New("a log output must be specified")

type invalidLogFormatError struct {
	format string
}

// Error returns the error message.
func (e invalidLogFormatError) Error() string {
	return fmt.Sprintf("log format %s is invalid, use text or json", e.format)
}
