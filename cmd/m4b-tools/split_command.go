package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"m4btools/internal/pathtemplate"
	"m4btools/internal/preflight"
	"m4btools/internal/split"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir  string
		template   string
		format     string
		bitrate    string
		coverPath  string
		noTags     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "split <file|pattern>",
		Short: "Split a chaptered file into one file per chapter",
		Long: fmt.Sprintf(`Extract every chapter into its own file, named by a template.

Placeholders: {%s}
Integers accept zero padding ({chapter_num:02d}), numbers a precision
({chapter_start:.1f}). A "/" in the template or in a value creates directories.`,
			joinPlaceholders()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				cfg := svc.cfg
				if template == "" {
					template = cfg.Split.Template
				}
				if format == "" {
					format = cfg.Split.Format
				}
				if bitrate == "" {
					bitrate = cfg.Split.Bitrate
				}
				if err := preflight.Err(preflight.RunAll(cfg, outputDir)); err != nil {
					return err
				}

				progress := newProgressReporter(cmd.ErrOrStderr(), "splitting", svc.logger, !noProgress)
				defer progress.finish()
				opts := split.Options{
					OutputDir: outputDir,
					Template:  template,
					Format:    format,
					Bitrate:   bitrate,
					TagMP3:    cfg.Split.TagMP3 && !noTags,
					CoverPath: coverPath,
					Observer:  progress,
				}
				splitter := split.New(svc.prober, svc.runner, svc.logger)
				out := cmd.OutOrStdout()

				if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
					res, err := splitter.SplitFile(cmd.Context(), args[0], opts)
					if res.Total > 0 {
						fmt.Fprintf(out, "Split %d/%d chapters into %s\n", res.Succeeded, res.Total, outputDir)
					}
					return err
				}
				summary, err := splitter.SplitMany(cmd.Context(), args[0], opts)
				if summary.Files > 0 {
					fmt.Fprintf(out, "Split %d/%d files (%d chapters) into %s in %s\n",
						summary.SucceededFiles, summary.Files, summary.Chapters, outputDir, summary.Elapsed.Truncate(time.Millisecond))
					for _, f := range summary.Failed {
						fmt.Fprintf(out, "  failed: %s\n", f)
					}
				}
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputDir, "output-dir", "o", ".", "Directory to write chapter files into")
	flags.StringVarP(&template, "template", "t", "", "Output path template (defaults to split.template)")
	flags.StringVarP(&format, "format", "f", "", "Output format: mp3, m4a, m4b, flac, ogg, opus, wav")
	flags.StringVar(&bitrate, "bitrate", "", "Encoder bitrate for lossy formats")
	flags.StringVar(&coverPath, "cover", "", "Artwork to embed in MP3 tags")
	flags.BoolVar(&noTags, "no-tags", false, "Do not write ID3 tags to MP3 outputs")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func joinPlaceholders() string {
	return strings.Join(pathtemplate.Placeholders(), "}, {")
}
