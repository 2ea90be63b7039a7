package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "ffmpeg concat", "stream mismatch", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "ffmpeg concat: stream mismatch") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsDetail(t *testing.T) {
	err := Wrap(nil, "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "operation failed") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"input", Input("combine", "no files matched %q", "*.m4b"), ExitUsage},
		{"config", fmt.Errorf("load: %w", ErrConfiguration), ExitUsage},
		{"tool", Wrap(ErrExternalTool, "ffmpeg", "boom", nil), ExitFailure},
		{"cancelled", fmt.Errorf("convert: %w", context.Canceled), ExitInterrupted},
		{"interrupted", Wrap(ErrInterrupted, "convert", "stopped", nil), ExitInterrupted},
		{"plain", errors.New("other"), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
