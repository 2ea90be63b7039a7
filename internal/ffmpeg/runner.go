package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

var commandContext = exec.CommandContext

// stderrTailLines bounds how much ffmpeg output is kept in error messages.
const stderrTailLines = 8

// Runner executes ffmpeg.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner constructs a Runner for the given binary ("ffmpeg" when empty).
func NewRunner(binary string, logger *slog.Logger) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// Binary returns the configured executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes ffmpeg with args. operation names the step in errors and logs.
func (r *Runner) Run(ctx context.Context, operation string, args []string) error {
	if r == nil {
		return errors.New("ffmpeg runner not initialized")
	}
	ctx = logging.WithOperation(ctx, operation)
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("ffmpeg starting", logging.String("args", strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", apperr.ErrInterrupted, operation, ctx.Err())
		}
		tail := stderrTail(stderr.String(), stderrTailLines)
		logger.Debug("ffmpeg failed",
			logging.Duration("elapsed", elapsed),
			logging.String("stderr", tail),
			logging.Error(err),
		)
		message := "ffmpeg exited with an error"
		if tail != "" {
			message = tail
		}
		return apperr.Wrap(apperr.ErrExternalTool, operation, message, err)
	}
	logger.Debug("ffmpeg finished", logging.Duration("elapsed", elapsed))
	return nil
}

// Version returns the first line of `ffmpeg -version`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	out, err := commandContext(ctx, r.binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", apperr.Wrap(apperr.ErrExternalTool, "ffmpeg version", r.binary, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

func stderrTail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
