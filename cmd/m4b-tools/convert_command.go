package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"m4btools/internal/apperr"
	"m4btools/internal/convert"
	"m4btools/internal/preflight"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		baseInputPath string
		jobs          int
		flat          bool
		overwrite     bool
		bitrate       string
		noProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "convert <pattern> <output-dir>",
		Short: "Convert audio files to m4b",
		Long: `Convert every supported audio file matching pattern to an AAC .m4b.

Patterns support ** for recursive matching. With --base-input-path the pattern
is resolved under that directory and output mirrors the layout below it; a
pattern containing ** mirrors the layout below the part before **.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				cfg := svc.cfg
				if !cmd.Flags().Changed("jobs") {
					jobs = cfg.Convert.Jobs
				}
				if jobs < 1 {
					return apperr.Input("convert", "--jobs must be at least 1")
				}
				if strings.TrimSpace(bitrate) == "" {
					bitrate = cfg.FFmpeg.ConvertBitrate
				}
				outputDir := args[1]
				if err := preflight.Err(preflight.RunAll(cfg, outputDir)); err != nil {
					return err
				}

				progress := newProgressReporter(cmd.ErrOrStderr(), "converting", svc.logger, !noProgress)
				summary, err := convert.New(svc.runner, svc.logger).Run(cmd.Context(), convert.Options{
					Layout: convert.Layout{
						OutputDir:         outputDir,
						PreserveStructure: cfg.Convert.PreserveStructure && !flat,
						BaseInputPath:     baseInputPath,
						Pattern:           args[0],
					},
					Jobs:         jobs,
					SkipExisting: cfg.Convert.SkipExisting && !overwrite,
					Bitrate:      bitrate,
					Observer:     progress,
				})
				progress.finish()
				if summary.Total > 0 {
					printConvertSummary(cmd, summary)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&baseInputPath, "base-input-path", "", "Directory the pattern and preserved layout are relative to")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "Number of parallel conversions")
	cmd.Flags().BoolVar(&flat, "flat", false, "Write every output directly into the output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-convert files whose output already exists")
	cmd.Flags().StringVar(&bitrate, "bitrate", "", "AAC bitrate (defaults to ffmpeg.convert_bitrate)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func printConvertSummary(cmd *cobra.Command, s convert.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converted %d/%d files", s.Succeeded, s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(out, ", %d skipped", s.Skipped)
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(out, ", %d failed", len(s.Failures))
	}
	fmt.Fprintf(out, " in %s\n", s.Elapsed.Truncate(time.Millisecond))
	for _, f := range s.Failures {
		fmt.Fprintf(out, "  failed: %s: %v\n", f.Input, f.Err)
	}
	if s.Interrupted {
		fmt.Fprintf(out, "Interrupted after %d/%d files\n", s.Completed, s.Total)
	}
}
