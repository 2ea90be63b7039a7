package preflight

import (
	"fmt"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/config"
	"m4btools/internal/deps"
)

// minFreeBytes is the free space required at an output location.
const minFreeBytes = 256 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the transcoder binaries and every output location.
func RunAll(cfg *config.Config, outputs ...string) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Command
		if status.Detail != "" {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: detail})
	}
	for _, out := range outputs {
		if strings.TrimSpace(out) == "" {
			continue
		}
		results = append(results, CheckOutputLocation("Output directory", out))
		results = append(results, CheckFreeSpace("Free space", out, minFreeBytes))
	}
	return results
}

// Err folds failed results into one ErrConfiguration error, or nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return apperr.Wrap(apperr.ErrConfiguration, "preflight", strings.Join(failed, "; "), nil)
}

// CheckSystemDeps evaluates the external binaries the configuration names.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Required for conversion, combining, and splitting",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Required for media inspection",
		},
	})
}
