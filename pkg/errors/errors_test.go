package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodePrecondition, "must run as root")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodePrecondition {
		t.Errorf("expected code %s, got %s", ErrCodePrecondition, err.Code)
	}
	if err.Message != "must run as root" {
		t.Errorf("expected message 'must run as root', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exit status 100")
	err := Wrap(ErrCodeCommandFailed, "apt-get update failed", cause)

	if err.Code != ErrCodeCommandFailed {
		t.Errorf("expected code %s, got %s", ErrCodeCommandFailed, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("exit status 1")
	ctx := map[string]interface{}{
		"command": "mysql",
		"step":    "set root password",
	}

	err := WrapWithContext(ErrCodeCommandFailed, "password step failed", cause, ctx)

	if err.Code != ErrCodeCommandFailed {
		t.Errorf("expected code %s, got %s", ErrCodeCommandFailed, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["command"] != "mysql" {
		t.Errorf("expected command to be mysql")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "unit not found"),
			expected: "[NOT_FOUND] unit not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	var se *StructuredError
	if !errors.As(err, &se) {
		t.Error("expected errors.As to match StructuredError")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Errorf("expected empty code for nil error, got %s", got)
	}
	if got := CodeOf(New(ErrCodeDrift, "drift")); got != ErrCodeDrift {
		t.Errorf("expected %s, got %s", ErrCodeDrift, got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("expected %s for plain error, got %s", ErrCodeInternal, got)
	}
}
