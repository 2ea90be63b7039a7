package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/cover"
	"m4btools/internal/ffmpeg"
	"m4btools/internal/fileutil"
	"m4btools/internal/logging"
	"m4btools/internal/pathtemplate"
	"m4btools/internal/tagging"
	"m4btools/internal/textutil"
)

// InputExtensions lists the containers SplitMany picks up from a pattern.
var InputExtensions = map[string]bool{
	".m4b": true,
	".m4a": true,
	".mp4": true,
}

// coverTagDimension bounds artwork embedded in split MP3s.
const coverTagDimension = 600

// Options configures a split.
type Options struct {
	OutputDir string
	Template  string
	Format    string
	Bitrate   string
	// TagMP3 writes ID3v2 tags onto MP3 outputs.
	TagMP3 bool
	// CoverPath is optional artwork embedded in MP3 tags.
	CoverPath string
	Observer  Observer
}

// Observer is notified after every chapter.
type Observer interface {
	ChapterDone(result ChapterResult, completed, total int)
}

// ChapterResult describes one extracted chapter.
type ChapterResult struct {
	Input  string
	Number int
	Title  string
	Output string
	Err    error
}

// FileResult reports the split of one container.
type FileResult struct {
	Input     string
	Outputs   []string
	Total     int
	Succeeded int
	Failures  []ChapterResult
}

// Summary reports a SplitMany batch.
type Summary struct {
	Files          int
	SucceededFiles int
	Chapters       int
	Failed         []string
	Elapsed        time.Duration
}

// Splitter extracts chapters.
type Splitter struct {
	prober *audiobook.Prober
	runner *ffmpeg.Runner
	logger *slog.Logger
}

// New constructs a Splitter.
func New(prober *audiobook.Prober, runner *ffmpeg.Runner, logger *slog.Logger) *Splitter {
	return &Splitter{prober: prober, runner: runner, logger: logging.NewComponentLogger(logger, "split")}
}

// prepared holds the per-run values validated before any extraction.
type prepared struct {
	tmpl  *pathtemplate.Template
	cover tagging.Tags
}

func (s *Splitter) prepare(opts Options) (prepared, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return prepared{}, apperr.Input("split", "an output directory is required")
	}
	tmpl, err := pathtemplate.Parse(opts.Template)
	if err != nil {
		return prepared{}, err
	}
	if _, err := ffmpeg.CodecArgs(opts.Format, opts.Bitrate); err != nil {
		return prepared{}, err
	}
	p := prepared{tmpl: tmpl}
	if opts.CoverPath != "" && normalizeFormat(opts.Format) == "mp3" {
		p.cover = s.loadCover(opts.CoverPath)
	}
	return p, nil
}

func (s *Splitter) loadCover(path string) tagging.Tags {
	data, err := os.ReadFile(path)
	if err == nil {
		var n cover.Normalized
		if n, err = cover.Normalize(data, coverTagDimension); err == nil {
			return tagging.Tags{Cover: n.Data, CoverMIME: "image/" + n.Format}
		}
	}
	logging.WarnWithContext(s.logger, "cover art unusable; tagging without it", "cover_unavailable",
		logging.String("cover", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "pass a readable JPEG, PNG, GIF, or WebP image"),
		logging.String(logging.FieldImpact, "split files carry no artwork"),
	)
	return tagging.Tags{}
}

// SplitFile extracts every chapter of input into opts.OutputDir. Probe and
// template failures abort before anything is written; a failed chapter is
// recorded and the remaining chapters still run.
func (s *Splitter) SplitFile(ctx context.Context, input string, opts Options) (FileResult, error) {
	p, err := s.prepare(opts)
	if err != nil {
		return FileResult{Input: input}, err
	}
	return s.splitFile(ctx, input, opts, p)
}

func (s *Splitter) splitFile(ctx context.Context, input string, opts Options, p prepared) (FileResult, error) {
	result := FileResult{Input: input}
	ctx = logging.WithFile(logging.WithOperation(ctx, "split"), input)
	logger := logging.WithContext(ctx, s.logger)

	track, err := s.prober.Probe(ctx, input)
	if err != nil {
		return result, err
	}
	if len(track.Chapters) == 0 {
		logger.Info("no embedded chapters; writing the whole file as one chapter")
	}
	jobs, err := Plan(track, p.tmpl, opts.Format)
	if err != nil {
		return result, err
	}
	result.Total = len(jobs)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return result, apperr.Wrap(apperr.ErrInput, "split", "create output directory", err)
	}
	unlock, err := lockDir(opts.OutputDir)
	if err != nil {
		return result, err
	}
	defer unlock()

	logger.Info("split starting",
		logging.Int("chapters", len(jobs)),
		logging.String("format", normalizeFormat(opts.Format)),
		logging.String("output_dir", opts.OutputDir),
	)
	for i, job := range jobs {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%w: split stopped after %d/%d chapters", apperr.ErrInterrupted, i, len(jobs))
		}
		output := filepath.Join(opts.OutputDir, job.Rel)
		cr := ChapterResult{Input: input, Number: job.Number, Title: job.Context.ChapterTitle, Output: output}
		cr.Err = s.extract(ctx, track, job, output, opts, p)
		if apperr.IsInterrupt(cr.Err) {
			return result, cr.Err
		}
		if cr.Err != nil {
			logging.WarnWithContext(logger, "chapter extraction failed", "split_chapter_failed",
				logging.Int("chapter", job.Number),
				logging.String("output", output),
				logging.Error(cr.Err),
				logging.String(logging.FieldErrorHint, "check the chapter range with m4b-tools chapters"),
				logging.String(logging.FieldImpact, "chapter file is missing from the output"),
			)
			result.Failures = append(result.Failures, cr)
		} else {
			result.Succeeded++
			result.Outputs = append(result.Outputs, output)
			logger.Debug("chapter written", logging.Int("chapter", job.Number), logging.String("output", output))
		}
		if opts.Observer != nil {
			opts.Observer.ChapterDone(cr, i+1, len(jobs))
		}
	}

	logger.Info("split complete",
		logging.String(logging.FieldEventType, "split_complete"),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("total", result.Total),
	)
	if len(result.Failures) > 0 {
		return result, apperr.Wrap(apperr.ErrItem, "split",
			fmt.Sprintf("%d/%d chapters extracted from %s", result.Succeeded, result.Total, filepath.Base(input)), nil)
	}
	return result, nil
}

func (s *Splitter) extract(ctx context.Context, track audiobook.Track, job Job, output string, opts Options, p prepared) error {
	partial := fileutil.PartialPath(output)
	args, err := ffmpeg.ExtractArgs(track.Path, partial, job.Chapter.Start, job.Chapter.End, opts.Format, opts.Bitrate)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create chapter directory: %w", err)
	}
	if err := s.runner.Run(ctx, "extract", args); err != nil {
		_ = os.Remove(partial)
		return err
	}
	if info, err := os.Stat(partial); err != nil || info.Size() == 0 {
		_ = os.Remove(partial)
		return apperr.Wrap(apperr.ErrExternalTool, "extract", "ffmpeg produced no output", err)
	}
	if opts.TagMP3 && normalizeFormat(opts.Format) == "mp3" {
		tags := chapterTags(job)
		tags.Cover, tags.CoverMIME = p.cover.Cover, p.cover.CoverMIME
		if err := tagging.WriteMP3(partial, tags); err != nil {
			logging.WarnWithContext(s.logger, "could not tag chapter", "split_tag_failed",
				logging.String(logging.FieldFile, output),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retag the file with an ID3 editor"),
				logging.String(logging.FieldImpact, "chapter file has no ID3 tags"),
			)
		}
	}
	return fileutil.Place(partial, output)
}

func chapterTags(job Job) tagging.Tags {
	c := job.Context
	return tagging.Tags{
		Title:       c.ChapterTitle,
		Album:       c.BookTitle,
		Artist:      c.Author,
		AlbumArtist: c.Author,
		Composer:    c.Narrator,
		Genre:       c.Genre,
		Year:        c.Year,
		Track:       c.ChapterNum,
		TrackTotal:  c.TotalChapters,
	}
}

// SplitMany splits every container matching pattern into opts.OutputDir.
// A container that fails entirely or partially counts as a failed file;
// the batch continues with the next one.
func (s *Splitter) SplitMany(ctx context.Context, pattern string, opts Options) (Summary, error) {
	started := time.Now()
	p, err := s.prepare(opts)
	if err != nil {
		return Summary{}, err
	}
	files, err := discover(pattern)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Files: len(files)}
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		res, err := s.splitFile(ctx, file, opts, p)
		summary.Chapters += res.Succeeded
		switch {
		case apperr.IsInterrupt(err):
			summary.Elapsed = time.Since(started)
			return summary, err
		case err != nil:
			summary.Failed = append(summary.Failed, file)
			if !errors.Is(err, apperr.ErrItem) {
				logging.WarnWithContext(s.logger, "split failed", "split_file_failed",
					logging.String(logging.FieldFile, file),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run m4b-tools split on the file alone for details"),
					logging.String(logging.FieldImpact, "file is skipped; the batch continues"),
				)
			}
		default:
			summary.SucceededFiles++
		}
	}
	summary.Elapsed = time.Since(started)
	s.logger.Info("split batch complete",
		logging.String(logging.FieldEventType, "split_summary"),
		logging.Int("succeeded_files", summary.SucceededFiles),
		logging.Int("files", summary.Files),
		logging.Int("chapters", summary.Chapters),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if ctx.Err() != nil {
		return summary, fmt.Errorf("%w: split batch stopped", apperr.ErrInterrupted)
	}
	if len(summary.Failed) > 0 {
		return summary, apperr.Wrap(apperr.ErrItem, "split",
			fmt.Sprintf("%d/%d files split", summary.SucceededFiles, summary.Files), nil)
	}
	return summary, nil
}

func discover(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInput, "split", "invalid pattern "+pattern, err)
	}
	var files []string
	for _, m := range matches {
		if InputExtensions[strings.ToLower(filepath.Ext(m))] {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, apperr.Input("split", "no chaptered containers match %q", pattern)
	}
	textutil.SortNatural(files)
	return files, nil
}

// lockDir keeps two split runs from writing into the same directory.
func lockDir(dir string) (func(), error) {
	lockPath := filepath.Join(dir, ".m4b-tools-split.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInput, "split", "acquire output lock", err)
	}
	if !ok {
		return nil, apperr.Input("split", "another split is writing into %s", dir)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
