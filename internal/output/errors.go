package output

import "errors"

// Exit codes following sysexits.h convention
const (
	ExitOK           = 0  // Success
	ExitGeneral      = 1  // General error
	ExitUsage        = 2  // Invalid usage / bad arguments
	ExitAuth         = 3  // Authentication failure
	ExitNotFound     = 4  // Resource not found
	ExitConflict     = 5  // Conflict (resource already exists)
	ExitForbidden    = 6  // Permission denied
	ExitRateLimit    = 75 // Rate limited (EX_TEMPFAIL from sysexits.h)
	ExitTimeout      = 8  // Request timeout
	ExitAPIError     = 9  // GitHub API error (non-specific)
	ExitConfigError  = 10 // Configuration error
	ExitNetworkError = 11 // Network connectivity error
)

// CLIError represents a structured error with exit code and optional hint
type CLIError struct {
	ExitCode int
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLIError
func NewCLIError(code int, msg string) *CLIError {
	return &CLIError{
		ExitCode: code,
		Message:  msg,
	}
}

// WithHint adds a user-facing hint to the error
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// ExitCode returns the exit code carried by err, ExitGeneral otherwise
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return ExitGeneral
}

// ReportError prints err and its hint via the formatter and returns the exit code.
// The os.Exit call stays in main.
func ReportError(formatter Formatter, err error) int {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		formatter.PrintError(cliErr)
		if cliErr.Hint != "" {
			formatter.PrintHint(cliErr.Hint)
		}
		return cliErr.ExitCode
	}

	formatter.PrintError(err)
	return ExitGeneral
}
