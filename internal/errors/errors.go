package errors

import (
	"errors"
	"fmt"
)

// MinimumCLIVersion is the oldest Heroku CLI release that supports --repl.
const MinimumCLIVersion = "10.10.0"

// ServerError is the base interface for all server errors.
type ServerError interface {
	error
	IsServerError() bool
}

// Compile-time verification that all error types implement ServerError.
var (
	_ ServerError = (*CLINotFoundError)(nil)
	_ ServerError = (*UnsupportedVersionError)(nil)
	_ ServerError = (*VersionParseError)(nil)
	_ ServerError = (*ProcessError)(nil)
	_ ServerError = (*StartupError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrSupervisorClosed indicates the REPL supervisor was disposed.
	// Submissions after disposal and commands abandoned by it both report this.
	ErrSupervisorClosed = errors.New("REPL process has been aborted and cannot execute commands")

	// ErrEmptyCommand indicates a blank command text was submitted.
	ErrEmptyCommand = errors.New("command is empty")

	// ErrMultilineCommand indicates the command text contains a line break.
	// The REPL reads one command per line, so such text cannot be paired with
	// a single completion sentinel.
	ErrMultilineCommand = errors.New("command must be a single line")

	// ErrReplUnsupported indicates the installed CLI printed the legacy
	// "--repl is not a heroku command" warning.
	ErrReplUnsupported = errors.New( //nolint:staticcheck // surfaced verbatim to the client
		"Your Heroku CLI version does not support --repl mode. Please upgrade to the latest Heroku CLI.",
	)
)

// CLINotFoundError indicates neither npx nor a usable heroku binary exists.
type CLINotFoundError struct {
	Err error
}

func (e *CLINotFoundError) Error() string {
	return "npx is not installed and Heroku CLI (" + MinimumCLIVersion +
		"+) is not available in your PATH. Please install one of them."
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *CLINotFoundError) IsServerError() bool { return true }

// UnsupportedVersionError indicates the heroku binary is older than the
// minimum release with REPL support.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf(
		"Heroku CLI version %s or higher is required for this MCP server. Detected version: %s",
		MinimumCLIVersion, e.Version,
	)
}

// IsServerError implements ServerError.
func (e *UnsupportedVersionError) IsServerError() bool { return true }

// VersionParseError indicates `heroku version` ran but printed nothing that
// looks like heroku/X.Y.Z.
type VersionParseError struct {
	Output string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("could not determine the Heroku CLI version from output: %q", e.Output)
}

// IsServerError implements ServerError.
func (e *VersionParseError) IsServerError() bool { return true }

// ProcessError indicates the REPL process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("heroku process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("heroku process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *ProcessError) IsServerError() bool { return true }

// StartupError is a fatal launch or transport failure of the REPL process.
// Its text is what MCP clients see in the fatal-error payload.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	if e.Err == nil {
		return "Startup error: unknown failure"
	}

	return "Startup error: " + e.Err.Error()
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *StartupError) IsServerError() bool { return true }
