package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"m4btools/internal/audiobook"
	"m4btools/internal/combine"
	"m4btools/internal/pathtemplate"
	"m4btools/internal/preflight"
)

func newCombineCommand(ctx *commandContext) *cobra.Command {
	var (
		csvPath  string
		output   string
		book     audiobook.Book
		preserve bool
		numbered bool
		tempDir  string
	)

	cmd := &cobra.Command{
		Use:   "combine [pattern]",
		Short: "Combine audio files into one chaptered m4b",
		Long: `Combine .m4b/.m4a files into a single .m4b with one chapter per file.

Inputs come either from a glob pattern (natural-sorted) or from a CSV manifest
(--csv) whose row order is kept. Manifest #key,value directives supply book
metadata; flags override them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				cfg := svc.cfg
				var pattern string
				if len(args) == 1 {
					pattern = args[0]
				}
				if !cmd.Flags().Changed("preserve-chapters") {
					preserve = cfg.Combine.PreserveChapters
				}
				if !cmd.Flags().Changed("numbered-titles") {
					numbered = cfg.Combine.NumberedTitles
				}
				if output != "" {
					if err := preflight.Err(preflight.RunAll(cfg, filepath.Dir(output))); err != nil {
						return err
					}
				} else if err := preflight.Err(preflight.RunAll(cfg)); err != nil {
					return err
				}

				result, err := combine.New(cfg, svc.prober, svc.runner, svc.covers(), svc.logger).Run(cmd.Context(), combine.Options{
					Pattern:          pattern,
					ManifestPath:     csvPath,
					Output:           output,
					Book:             book,
					PreserveChapters: preserve,
					NumberedTitles:   numbered,
					WorkDir:          tempDir,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created %s\n", result.Output)
				fmt.Fprintf(out, "  Title:    %s\n", result.Book.Title)
				if result.Book.Author != "" {
					fmt.Fprintf(out, "  Author:   %s\n", result.Book.Author)
				}
				fmt.Fprintf(out, "  Chapters: %d from %d files\n", len(result.Chapters), result.Tracks)
				fmt.Fprintf(out, "  Duration: %s\n", pathtemplate.FormatDuration(result.Duration()))
				fmt.Fprintf(out, "  Audio:    %s\n", result.Encoding)
				fmt.Fprintf(out, "  Cover:    %s\n", yesNo(result.Cover != ""))
				fmt.Fprintf(out, "  Elapsed:  %s\n", result.Elapsed.Truncate(time.Millisecond))
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&csvPath, "csv", "", "CSV manifest listing the files and book metadata")
	flags.StringVarP(&output, "output", "o", "", "Output .m4b path (required without a manifest #output_path)")
	flags.StringVar(&book.Title, "title", "", "Book title")
	flags.StringVar(&book.Author, "author", "", "Book author")
	flags.StringVar(&book.Narrator, "narrator", "", "Narrator")
	flags.StringVar(&book.Genre, "genre", "", "Genre")
	flags.StringVar(&book.Year, "year", "", "Release year")
	flags.StringVar(&book.Description, "description", "", "Description")
	flags.StringVar(&book.CoverRef, "cover", "", "Cover image path or URL")
	flags.BoolVar(&preserve, "preserve-chapters", false, "Keep the embedded chapters of each input")
	flags.BoolVar(&numbered, "numbered-titles", false, `Prefix filename-derived titles with "Chapter N: "`)
	flags.StringVar(&tempDir, "temp-dir", "", "Staging directory to use and keep (default: a removed temporary directory)")
	return cmd
}
