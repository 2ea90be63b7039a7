package combine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/config"
	"m4btools/internal/cover"
	"m4btools/internal/ffmpeg"
	"m4btools/internal/fileutil"
	"m4btools/internal/logging"
	"m4btools/internal/staging"
)

// Options describes one combine run. Exactly one of Pattern and
// ManifestPath must be set.
type Options struct {
	Pattern      string
	ManifestPath string
	// Output overrides the manifest output_path directive. It is required
	// when combining from a pattern.
	Output string
	// Book holds explicit metadata; non-empty fields win over every other
	// source.
	Book             audiobook.Book
	PreserveChapters bool
	NumberedTitles   bool
	// WorkDir, when set, is used as the staging directory and kept.
	WorkDir string
}

// Result reports a finished combine.
type Result struct {
	Output   string
	Book     audiobook.Book
	Chapters []audiobook.Chapter
	Tracks   int
	Encoding ffmpeg.Encoding
	Cover    string
	Elapsed  time.Duration
}

// Duration is the total length of the combined book in seconds.
func (r Result) Duration() float64 {
	return audiobook.TotalDuration(r.Chapters)
}

// Combiner runs combine operations.
type Combiner struct {
	cfg    *config.Config
	prober *audiobook.Prober
	runner *ffmpeg.Runner
	covers *cover.Resolver
	logger *slog.Logger
}

// New constructs a Combiner. covers may be nil, in which case cover
// references are ignored.
func New(cfg *config.Config, prober *audiobook.Prober, runner *ffmpeg.Runner, covers *cover.Resolver, logger *slog.Logger) *Combiner {
	return &Combiner{
		cfg:    cfg,
		prober: prober,
		runner: runner,
		covers: covers,
		logger: logging.NewComponentLogger(logger, "combine"),
	}
}

// Run combines the inputs described by opts into one m4b.
func (c *Combiner) Run(ctx context.Context, opts Options) (Result, error) {
	started := time.Now()
	in, err := resolveInputs(opts, c.logger)
	if err != nil {
		return Result{}, err
	}
	output := strings.TrimSpace(opts.Output)
	if output == "" {
		output = in.directives[audiobook.DirectiveOutputPath]
	}
	if output == "" {
		return Result{}, apperr.Input("combine", "an output file is required (flag or #output_path directive)")
	}
	if output, err = filepath.Abs(output); err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "resolve output path", err)
	}
	ctx = logging.WithFile(logging.WithOperation(ctx, "combine"), output)
	logger := logging.WithContext(ctx, c.logger)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "create output directory", err)
	}
	unlock, err := lockOutput(output)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	logger.Info("combine starting",
		logging.Int("files", len(in.files)),
		logging.Bool("preserve_chapters", opts.PreserveChapters),
	)

	tracks := make([]audiobook.Track, 0, len(in.files))
	for _, file := range in.files {
		track, err := c.prober.Probe(ctx, file)
		if err != nil {
			return Result{}, err
		}
		tracks = append(tracks, track)
	}

	chapters, err := audiobook.Synthesize(tracks, audiobook.SynthesizeOptions{
		Overrides:        in.overrides,
		PreserveExisting: opts.PreserveChapters,
		NumberedTitles:   opts.NumberedTitles,
		Logger:           logger,
	})
	if err != nil {
		return Result{}, err
	}
	book := audiobook.MergeBook(opts.Book, in.directives, tracks[0], audiobook.BookDefaults{
		Title: c.cfg.Combine.DefaultTitle,
		Genre: c.cfg.Combine.DefaultGenre,
	})
	book.OutputPath = output
	enc := c.encoding(tracks)
	logger.Info("chapter table ready",
		logging.Int("chapters", len(chapters)),
		logging.Float64("duration_seconds", audiobook.TotalDuration(chapters)),
		logging.String("encoding", enc.String()),
		logging.String("title", book.Title),
	)
	if !enc.Copy {
		logger.Info("input streams differ; re-encoding",
			logging.String("first", ffmpeg.Describe(tracks[0])),
		)
	}

	ws, err := staging.Acquire(c.cfg.Paths.WorkDir, opts.WorkDir, c.logger)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "staging directory", err)
	}
	defer func() { _ = ws.Release() }()

	coverPath := c.resolveCover(ctx, logger, book.CoverRef, in.baseDir, ws.Path)

	listPath := ws.File("concat.txt")
	if err := ffmpeg.WriteConcatList(listPath, in.files); err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "write concat list", err)
	}
	metaPath := ws.File("ffmetadata.txt")
	if err := os.WriteFile(metaPath, audiobook.EncodeMetadata(book, chapters), 0o644); err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "write metadata document", err)
	}

	joined := ws.File("joined.m4a")
	if err := c.runner.Run(ctx, "concat", ffmpeg.ConcatArgs(listPath, joined, enc)); err != nil {
		return Result{}, err
	}
	partial := fileutil.PartialPath(output)
	if err := c.runner.Run(ctx, "mux", ffmpeg.MuxArgs(joined, metaPath, coverPath, partial)); err != nil {
		_ = os.Remove(partial)
		return Result{}, err
	}
	if err := verifyOutput(partial); err != nil {
		_ = os.Remove(partial)
		return Result{}, err
	}
	if err := fileutil.Place(partial, output); err != nil {
		return Result{}, apperr.Wrap(apperr.ErrInput, "combine", "place output", err)
	}

	result := Result{
		Output:   output,
		Book:     book,
		Chapters: chapters,
		Tracks:   len(tracks),
		Encoding: enc,
		Cover:    coverPath,
		Elapsed:  time.Since(started),
	}
	logger.Info("combine complete",
		logging.String(logging.FieldEventType, "combine_complete"),
		logging.Int("chapters", len(chapters)),
		logging.Bool("cover", coverPath != ""),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (c *Combiner) encoding(tracks []audiobook.Track) ffmpeg.Encoding {
	if ffmpeg.CompatibleStreams(tracks) {
		return ffmpeg.Encoding{Copy: true}
	}
	return ffmpeg.Encoding{
		Codec:    c.cfg.FFmpeg.FallbackCodec,
		Bitrate:  c.cfg.FFmpeg.FallbackBitrate,
		Channels: c.cfg.FFmpeg.FallbackChannels,
	}
}

func (c *Combiner) resolveCover(ctx context.Context, logger *slog.Logger, ref, baseDir, workDir string) string {
	if strings.TrimSpace(ref) == "" || c.covers == nil {
		return ""
	}
	path, err := c.covers.Resolve(ctx, ref, baseDir, workDir)
	if err != nil {
		logging.WarnWithContext(logger, "cover art unavailable; continuing without it", "cover_unavailable",
			logging.String("cover", ref),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the #cover_path value or download URL"),
			logging.String(logging.FieldImpact, "book is written without artwork"),
		)
		return ""
	}
	return path
}

// lockOutput takes an exclusive lock on "<output>.lock". The returned func
// unlocks and removes the lock file.
func lockOutput(output string) (func(), error) {
	lockPath := output + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInput, "combine", "acquire output lock", err)
	}
	if !ok {
		return nil, apperr.Input("combine", "another process is writing %s", output)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Size() == 0 {
		err = errors.New("output is empty")
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrExternalTool, "mux", fmt.Sprintf("ffmpeg did not produce %s", filepath.Base(path)), err)
	}
	return nil
}
