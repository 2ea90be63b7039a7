package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"m4btools/internal/apperr"
	"m4btools/internal/ffmpeg"
	"m4btools/internal/fileutil"
	"m4btools/internal/logging"
)

// Status is the outcome of one file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// FileResult describes one processed input.
type FileResult struct {
	Input   string
	Output  string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Observer is notified after every file. Calls are serialized.
type Observer interface {
	FileDone(result FileResult, completed, total int)
}

// Summary aggregates a batch.
type Summary struct {
	Total       int
	Completed   int
	Succeeded   int
	Skipped     int
	Failures    []FileResult
	Interrupted bool
	Elapsed     time.Duration
}

// Options configures Run.
type Options struct {
	Layout
	Jobs         int
	SkipExisting bool
	Bitrate      string
	Observer     Observer
}

// Converter runs conversion batches.
type Converter struct {
	runner *ffmpeg.Runner
	logger *slog.Logger
}

// New constructs a Converter.
func New(runner *ffmpeg.Runner, logger *slog.Logger) *Converter {
	return &Converter{runner: runner, logger: logging.NewComponentLogger(logger, "convert")}
}

// Run converts every file matched by opts.Pattern. Individual failures are
// collected in the summary and reported as one ErrItem error; an interrupt
// returns the partial summary with ErrInterrupted.
func (c *Converter) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()
	files, err := Discover(opts.Pattern, opts.BaseInputPath)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, apperr.Input("convert", "no supported audio files match %q", opts.Pattern)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Summary{}, apperr.Wrap(apperr.ErrInput, "convert", "create output directory "+opts.OutputDir, err)
	}

	jobs := max(opts.Jobs, 1)
	c.logger.Info("conversion starting",
		logging.Int("files", len(files)),
		logging.Int("jobs", jobs),
		logging.String("output_dir", opts.OutputDir),
	)

	summary := Summary{Total: len(files)}
	var mu sync.Mutex
	record := func(res FileResult) {
		mu.Lock()
		defer mu.Unlock()
		summary.Completed++
		switch res.Status {
		case StatusConverted:
			summary.Succeeded++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failures = append(summary.Failures, res)
		}
		if opts.Observer != nil {
			opts.Observer.FileDone(res, summary.Completed, summary.Total)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(jobs)
	for _, input := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := c.convertOne(ctx, input, opts)
			if apperr.IsInterrupt(res.Err) {
				return nil
			}
			record(res)
			return nil
		})
	}
	_ = g.Wait()

	summary.Elapsed = time.Since(started)
	summary.Interrupted = ctx.Err() != nil
	c.logger.Info("conversion complete",
		logging.String(logging.FieldEventType, "convert_summary"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", len(summary.Failures)),
		logging.Int("total", summary.Total),
		logging.Duration("elapsed", summary.Elapsed),
	)

	switch {
	case summary.Interrupted:
		return summary, fmt.Errorf("%w: convert stopped after %d/%d files", apperr.ErrInterrupted, summary.Completed, summary.Total)
	case len(summary.Failures) > 0:
		return summary, apperr.Wrap(apperr.ErrItem, "convert",
			fmt.Sprintf("%d/%d files converted, %d failed", summary.Succeeded, summary.Total, len(summary.Failures)), nil)
	}
	return summary, nil
}

func (c *Converter) convertOne(ctx context.Context, input string, opts Options) FileResult {
	started := time.Now()
	output := opts.OutputPath(input)
	res := FileResult{Input: input, Output: output}
	logger := logging.WithContext(logging.WithFile(ctx, input), c.logger)

	if opts.SkipExisting {
		if _, err := os.Stat(output); err == nil {
			logger.Info("output exists; skipping", logging.String("output", output))
			res.Status = StatusSkipped
			return res
		}
	}

	err := c.convertFile(ctx, input, output, opts.Bitrate)
	res.Elapsed = time.Since(started)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		if !apperr.IsInterrupt(err) {
			logging.WarnWithContext(logger, "conversion failed", "convert_item_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run ffmpeg on the file manually to inspect the error"),
				logging.String(logging.FieldImpact, "file is not converted; the batch continues"),
			)
		}
		return res
	}
	res.Status = StatusConverted
	logger.Info("converted",
		logging.String("output", output),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res
}

func (c *Converter) convertFile(ctx context.Context, input, output, bitrate string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	partial := fileutil.PartialPath(output)
	if err := c.runner.Run(ctx, "convert", ffmpeg.ConvertArgs(input, partial, bitrate)); err != nil {
		_ = os.Remove(partial)
		return err
	}
	info, err := os.Stat(partial)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(partial)
		if err == nil {
			err = errors.New("empty output")
		}
		return apperr.Wrap(apperr.ErrExternalTool, "convert", "ffmpeg produced no output", err)
	}
	return fileutil.Place(partial, output)
}
