package output

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCLIError(t *testing.T) {
	err := NewCLIError(ExitAuth, "authentication failed")
	assert.Equal(t, ExitAuth, err.ExitCode)
	assert.Equal(t, "authentication failed", err.Message)
	assert.Empty(t, err.Hint)
}

func TestCLIErrorError(t *testing.T) {
	err := &CLIError{Message: "something broke"}
	assert.Equal(t, "something broke", err.Error())
}

func TestCLIErrorWithHint(t *testing.T) {
	err := NewCLIError(ExitAuth, "auth failed")
	result := err.WithHint("Run: keyver auth login")

	// Fluent builder returns same pointer
	assert.Same(t, err, result)
	assert.Equal(t, "Run: keyver auth login", err.Hint)
}

func TestCLIErrorImplementsError(t *testing.T) {
	var err error = NewCLIError(ExitGeneral, "test")
	assert.Equal(t, "test", err.Error())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(errors.New("plain")))
	assert.Equal(t, ExitNotFound, ExitCode(NewCLIError(ExitNotFound, "nope")))

	wrapped := fmt.Errorf("context: %w", NewCLIError(ExitAuth, "denied"))
	assert.Equal(t, ExitAuth, ExitCode(wrapped))
}

func TestReportError(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWithWriters("plain", &out, &errOut)

	code := ReportError(f, NewCLIError(ExitAuth, "denied").WithHint("log in"))
	assert.Equal(t, ExitAuth, code)
	assert.Equal(t, "error: denied\nhint: log in\n", errOut.String())

	errOut.Reset()
	code = ReportError(f, errors.New("boom"))
	assert.Equal(t, ExitGeneral, code)
	assert.Equal(t, "error: boom\n", errOut.String())
	assert.Empty(t, out.String())
}
