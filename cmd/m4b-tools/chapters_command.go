package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/pathtemplate"
)

type chapterListing struct {
	File     string              `json:"file" yaml:"file"`
	Title    string              `json:"title,omitempty" yaml:"title,omitempty"`
	Duration float64             `json:"duration" yaml:"duration"`
	Chapters []audiobook.Chapter `json:"chapters" yaml:"chapters"`
}

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "chapters <file>",
		Short: "Show the chapter table of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "table", "json", "yaml":
			default:
				return apperr.Input("chapters", "unknown --format %q (table, json, yaml)", format)
			}
			return ctx.withServices(cmd, func(svc *services) error {
				track, err := svc.prober.Probe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				listing := chapterListing{
					File:     track.Path,
					Title:    firstNonBlank(track.Title, track.Album),
					Duration: track.Duration,
					Chapters: track.Chapters,
				}
				if listing.Chapters == nil {
					listing.Chapters = []audiobook.Chapter{}
				}
				switch format {
				case "json":
					return writeJSON(cmd, listing)
				case "yaml":
					return writeYAML(cmd, listing)
				}
				return printChapterTable(cmd, listing)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, yaml")
	return cmd
}

func printChapterTable(cmd *cobra.Command, listing chapterListing) error {
	out := cmd.OutOrStdout()
	if listing.Title != "" {
		fmt.Fprintf(out, "%s\n", listing.Title)
	}
	fmt.Fprintf(out, "Duration: %s\n", pathtemplate.FormatDuration(listing.Duration))
	if len(listing.Chapters) == 0 {
		fmt.Fprintln(out, "No chapters")
		return nil
	}
	rows := make([][]string, 0, len(listing.Chapters))
	for i, ch := range listing.Chapters {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatTimestamp(ch.Start),
			formatTimestamp(ch.End),
			pathtemplate.FormatDuration(ch.Duration()),
			ch.Title,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Start", "End", "Length", "Title"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

// formatTimestamp renders seconds as H:MM:SS.mmm.
func formatTimestamp(seconds float64) string {
	ms := audiobook.Milliseconds(seconds)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
