// Package apperr classifies failures so the CLI can map them to exit codes
// and batch runners can tell item failures apart from fatal ones.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks missing arguments, empty matches, and malformed manifests.
	ErrInput = errors.New("invalid input")
	// ErrExternalTool marks a failed or unparseable ffmpeg/ffprobe invocation.
	ErrExternalTool = errors.New("external tool error")
	// ErrItem marks a single failed unit inside a batch.
	ErrItem = errors.New("item failed")
	// ErrDegraded marks an optional feature that was skipped (cover art, chapters).
	ErrDegraded = errors.New("feature degraded")
	// ErrConfiguration marks an unusable configuration value.
	ErrConfiguration = errors.New("configuration error")
	// ErrInterrupted marks work stopped by a user interrupt.
	ErrInterrupted = errors.New("interrupted")
)

// Process exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Input is shorthand for Wrap(ErrInput, operation, message, nil).
func Input(operation, format string, args ...any) error {
	return Wrap(ErrInput, operation, fmt.Sprintf(format, args...), nil)
}

// IsInterrupt reports whether err stems from a cancelled context or an
// explicit interrupt marker.
func IsInterrupt(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsInterrupt(err):
		return ExitInterrupted
	case errors.Is(err, ErrInput), errors.Is(err, ErrConfiguration):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
