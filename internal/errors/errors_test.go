package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindIO, "I/O error"},
		{KindCommand, "Command error"},
		{KindConfig, "Configuration error"},
		{KindClip, "Clip error"},
		{KindScaling, "Scaling error"},
		{KindQuality, "Quality metric error"},
		{KindWorkbook, "Workbook error"},
		{KindResultNotFound, "Result not found"},
		{KindBDRate, "BD-rate error"},
		{KindCancelled, "Operation cancelled"},
		{ErrorKind(99), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCoreErrorError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &CoreError{
		Kind:       KindIO,
		Message:    "test message",
		Underlying: underlying,
	}

	got := err.Error()
	expected := "I/O error: test message: underlying error"
	if got != expected {
		t.Errorf("CoreError.Error() = %v, want %v", got, expected)
	}

	err2 := &CoreError{
		Kind:    KindWorkbook,
		Message: "sheet missing",
	}

	got2 := err2.Error()
	expected2 := "Workbook error: sheet missing"
	if got2 != expected2 {
		t.Errorf("CoreError.Error() = %v, want %v", got2, expected2)
	}
}

func TestCoreErrorIs(t *testing.T) {
	err1 := &CoreError{Kind: KindIO, Message: "test1"}
	err2 := &CoreError{Kind: KindIO, Message: "test2"}
	err3 := &CoreError{Kind: KindConfig, Message: "test3"}

	if !err1.Is(err2) {
		t.Error("Same kind errors should match")
	}
	if err1.Is(err3) {
		t.Error("Different kind errors should not match")
	}
}

func TestCommandError(t *testing.T) {
	startErr := &CommandError{
		Command:    "aomenc",
		Kind:       CommandStart,
		Underlying: errors.New("not found"),
	}
	if got := startErr.Error(); got != "failed to execute aomenc: not found" {
		t.Errorf("CommandStart error = %v", got)
	}

	failedErr := &CommandError{
		Command:  "HDRConvert",
		Kind:     CommandFailed,
		ExitCode: 1,
		Stderr:   "cannot open cfg",
	}
	expected := "command HDRConvert failed with exit code 1: cannot open cfg"
	if got := failedErr.Error(); got != expected {
		t.Errorf("CommandFailed error = %v, want %v", got, expected)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *CoreError
		kind ErrorKind
	}{
		{"NewIOError", NewIOError("disk full", errors.New("no space")), KindIO},
		{"NewConfigError", NewConfigError("bad qp", nil), KindConfig},
		{"NewClipError", NewClipError("bad header", nil), KindClip},
		{"NewScalingError", NewScalingError("unsupported", nil), KindScaling},
		{"NewQualityError", NewQualityError("bad log", nil), KindQuality},
		{"NewWorkbookError", NewWorkbookError("no sheet", nil), KindWorkbook},
		{"NewResultNotFoundError", NewResultNotFoundError("Foo", "/in"), KindResultNotFound},
		{"NewBDRateError", NewBDRateError("no overlap", nil), KindBDRate},
		{"NewCancelledError", NewCancelledError(), KindCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Expected %v, got %v", tt.kind, tt.err.Kind)
			}
		})
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("aggregating: %w", NewResultNotFoundError("Foo", "/in"))

	if !IsResultNotFound(err) {
		t.Error("IsResultNotFound should see through fmt.Errorf wrapping")
	}
	if IsKind(err, KindIO) {
		t.Error("IsKind should return false for non-matching kind")
	}
	if IsKind(errors.New("plain error"), KindConfig) {
		t.Error("IsKind should return false for non-CoreError")
	}
	if IsCancelled(err) {
		t.Error("IsCancelled should return false for other kinds")
	}
}

func TestWrapExecError(t *testing.T) {
	err := exec.Command("false").Run()
	if err == nil {
		t.Skip("false returned success")
	}
	wrapped := WrapExecError("false", err, "boom")
	var cmdErr *CommandError
	if !errors.As(wrapped, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", wrapped.Underlying)
	}
	if cmdErr.Kind != CommandFailed || cmdErr.ExitCode != 1 {
		t.Errorf("got kind=%v exit=%d, want CommandFailed/1", cmdErr.Kind, cmdErr.ExitCode)
	}

	startErr := WrapExecError("missing", exec.ErrNotFound, "")
	if !errors.As(startErr, &cmdErr) || cmdErr.Kind != CommandStart {
		t.Errorf("expected CommandStart for non-exit error, got %v", startErr)
	}
}
