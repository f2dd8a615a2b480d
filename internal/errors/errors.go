// Package errors provides structured error types for avctc operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindCommand represents external command execution errors.
	KindCommand
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindClip represents clip registry and header parsing errors.
	KindClip
	// KindScaling represents resampler errors.
	KindScaling
	// KindQuality represents quality log parsing errors.
	KindQuality
	// KindWorkbook represents spreadsheet read/write errors.
	KindWorkbook
	// KindResultNotFound represents a missing per-content result workbook.
	KindResultNotFound
	// KindBDRate represents BD-rate calculation errors.
	KindBDRate
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindCommand:
		return "Command error"
	case KindConfig:
		return "Configuration error"
	case KindClip:
		return "Clip error"
	case KindScaling:
		return "Scaling error"
	case KindQuality:
		return "Quality metric error"
	case KindWorkbook:
		return "Workbook error"
	case KindResultNotFound:
		return "Result not found"
	case KindBDRate:
		return "BD-rate error"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for avctc operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	cmdErr := &CommandError{Command: cmd, Kind: CommandStart, Underlying: err}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message, Underlying: underlying}
}

// NewClipError creates a new clip registry error.
func NewClipError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindClip, Message: message, Underlying: underlying}
}

// NewScalingError creates a new scaling error.
func NewScalingError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindScaling, Message: message, Underlying: underlying}
}

// NewQualityError creates a new quality metric error.
func NewQualityError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindQuality, Message: message, Underlying: underlying}
}

// NewWorkbookError creates a new workbook error.
func NewWorkbookError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindWorkbook, Message: message, Underlying: underlying}
}

// NewResultNotFoundError creates an error for a content without a result workbook.
func NewResultNotFoundError(content, dir string) *CoreError {
	return &CoreError{Kind: KindResultNotFound, Message: fmt.Sprintf("no convex hull result file for content %s in %s", content, dir)}
}

// NewBDRateError creates a new BD-rate calculation error.
func NewBDRateError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindBDRate, Message: message, Underlying: underlying}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsResultNotFound checks if the error is a missing result workbook error.
func IsResultNotFound(err error) bool {
	return IsKind(err, KindResultNotFound)
}

// WrapExecError wraps an exec.ExitError into a CoreError.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
