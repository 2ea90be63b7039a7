package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"m4btools/internal/convert"
	"m4btools/internal/logging"
	"m4btools/internal/split"
)

// progressReporter renders batch progress as a bar on terminals and as
// periodic log lines otherwise.
type progressReporter struct {
	bar       *progressbar.ProgressBar
	logger    *slog.Logger
	started   time.Time
	succeeded int
}

func newProgressReporter(out io.Writer, description string, logger *slog.Logger, enabled bool) *progressReporter {
	p := &progressReporter{logger: logger, started: time.Now()}
	if enabled && isTerminal(out) {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

func (p *progressReporter) FileDone(result convert.FileResult, completed, total int) {
	p.step(result.Status == convert.StatusConverted, completed, total)
}

func (p *progressReporter) ChapterDone(result split.ChapterResult, completed, total int) {
	p.step(result.Err == nil, completed, total)
}

func (p *progressReporter) step(ok bool, completed, total int) {
	if ok {
		p.succeeded++
	}
	if p.bar != nil {
		if p.bar.GetMax() != total {
			p.bar.ChangeMax(total)
		}
		_ = p.bar.Set(completed)
		return
	}
	elapsed := time.Since(p.started)
	var eta time.Duration
	if completed > 0 {
		eta = elapsed / time.Duration(completed) * time.Duration(total-completed)
	}
	p.logger.Info("progress",
		logging.Int("completed", completed),
		logging.Int("total", total),
		logging.Float64("percent", float64(completed)*100/float64(max(total, 1))),
		logging.Int("succeeded", p.succeeded),
		logging.Duration("elapsed", elapsed.Truncate(time.Second)),
		logging.Duration("eta", eta.Truncate(time.Second)),
	)
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
