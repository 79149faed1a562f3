// Package exitcode provides standardized exit codes for pysbom
package exitcode

import "errors"

// Exit codes for pysbom CLI
const (
	Success                 = 0
	VulnerabilitiesDetected = 1
	InvalidArguments        = 2
	ApplicationError        = 3
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case VulnerabilitiesDetected:
		return "Vulnerabilities detected above threshold"
	case InvalidArguments:
		return "Invalid arguments"
	case ApplicationError:
		return "Application error"
	default:
		return "Unknown error"
	}
}

// Error attaches an exit code to an error returned from a command.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return String(e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with code.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

// FromError returns the exit code carried by err.
// A nil error maps to Success, an untagged error to ApplicationError.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ApplicationError
}
