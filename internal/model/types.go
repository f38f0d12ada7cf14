package model

import (
	"fmt"
	"regexp"
	"time"
)

// InterpreterSource records where a Python interpreter was found during
// discovery. It is surfaced in verbose output and by the doctor command
// so users can tell which of the candidate locations won.
type InterpreterSource string

const (
	// SourceOverride means the interpreter path came from an explicit
	// override: the --python flag or the "python" config field.
	SourceOverride InterpreterSource = "override"

	// SourceEnv means the interpreter path came from the PYBUILD_PYTHON
	// or PYTHON environment variable.
	SourceEnv InterpreterSource = "env"

	// SourceVenv means the interpreter is the one inside the project's
	// virtual environment directory.
	SourceVenv InterpreterSource = "venv"

	// SourcePath means the interpreter was located on the system PATH.
	SourcePath InterpreterSource = "path"
)

// String returns the string representation of InterpreterSource,
// satisfying fmt.Stringer for CLI output.
func (s InterpreterSource) String() string {
	return string(s)
}

// IsValid checks whether the InterpreterSource value is one of the
// predefined locations.
func (s InterpreterSource) IsValid() bool {
	switch s {
	case SourceOverride, SourceEnv, SourceVenv, SourcePath:
		return true
	default:
		return false
	}
}

// Interpreter describes a resolved Python interpreter.
//
// Path is absolute once discovery has finished; Version is the trimmed
// output of `python --version` (e.g., "Python 3.12.1") and may be empty
// when interrogation was skipped or failed.
type Interpreter struct {
	// Path is the filesystem path to the interpreter binary.
	Path string `json:"path"`

	// Version is the interpreter's self-reported version string.
	Version string `json:"version,omitempty"`

	// Source records which discovery candidate produced this interpreter.
	Source InterpreterSource `json:"source"`
}

// String returns a human-readable summary like
// "/repo/.venv/bin/python (Python 3.12.1, venv)".
func (i Interpreter) String() string {
	if i.Version == "" {
		return fmt.Sprintf("%s (%s)", i.Path, i.Source)
	}
	return fmt.Sprintf("%s (%s, %s)", i.Path, i.Version, i.Source)
}

// BuildResult captures the outcome of a dispatched external invocation
// (the build script or the application entry point). It exists so the CLI
// layer can format results without re-deriving them from the exec layer.
type BuildResult struct {
	// Command is the interpreter binary that was invoked.
	Command string `json:"command"`

	// Args is the full argument list forwarded to the interpreter,
	// including the script path and the injected packaging flag.
	Args []string `json:"args"`

	// ExitCode is the external process's exit code. Zero on success.
	ExitCode int `json:"exitCode"`

	// Duration is how long the external process ran.
	Duration time.Duration `json:"duration"`
}

// CheckResult is a single preflight check outcome for the doctor command.
type CheckResult struct {
	// Name identifies the check (e.g., "interpreter", "manifest").
	Name string `json:"name"`

	// OK reports whether the check passed.
	OK bool `json:"ok"`

	// Detail is a human-readable explanation: the resolved path on
	// success, or what was missing and where it was searched on failure.
	Detail string `json:"detail,omitempty"`
}

// nameRegex validates executable names forwarded to the build script:
// alphanumeric plus hyphens/underscores/dots, starting alphanumeric.
// PyInstaller accepts more, but these are the characters that behave
// everywhere (shell, filesystem, .app bundle names).
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateExecutableName checks whether the given name is safe to forward
// as the packaged executable's name. An empty name is valid: it means
// "let the build script use its default".
func ValidateExecutableName(name string) error {
	if name == "" {
		return nil
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid executable name %q: must start with an alphanumeric character and contain only alphanumerics, dots, hyphens, and underscores", name)
	}
	return nil
}

// ExitCode defines the CLI's process exit codes.
//
// The contract is deliberately narrow: precondition failures (missing
// manifest, no interpreter found) always exit 1, and a failed external
// build exits with the external process's own code, forwarded verbatim.
// Scripts wrapping pybuild can therefore treat the exit code of
// `pybuild build` exactly as they would treat the build script's.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates a pybuild-side failure: an unmet
	// precondition (manifest or interpreter missing) or any other error
	// that is not an external process's non-zero exit.
	ExitGeneralError ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit statuses.
type CLIError struct {
	// Code is the exit code to return to the OS. For forwarded external
	// failures this is the child process's exit code.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ForwardedExitError creates a CLIError for an external process that
// exited with a non-zero code. The code is forwarded verbatim so the
// caller's exit status mirrors the external routine's.
func ForwardedExitError(code int, message string, err error) *CLIError {
	return &CLIError{Code: ExitCode(code), Message: message, Err: err}
}
