package cmd

import (
	"errors"
	"fmt"

	"github.com/hubgate/hubgate/internal/probe"
)

// Exit codes are the tool's machine-readable contract with the CI system
// that invokes it. Do not renumber.
const (
	ExitOK       = 0
	ExitLow      = 1
	ExitCritical = 2
	ExitFailure  = 3
)

// ExitError carries a specific process exit code through cobra's RunE
// chain without printing usage or an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsExitStatus reports whether the error is a bare exit code rather than a
// failure worth printing.
func IsExitStatus(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

func severityExitCode(severity probe.Severity) int {
	switch severity {
	case probe.SeverityCritical:
		return ExitCritical
	case probe.SeverityLow:
		return ExitLow
	default:
		return ExitOK
	}
}
