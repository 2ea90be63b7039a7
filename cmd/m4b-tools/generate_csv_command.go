package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"m4btools/internal/manifest"
)

func newGenerateCSVCommand(ctx *commandContext) *cobra.Command {
	var output string
	var genre string

	cmd := &cobra.Command{
		Use:   "generate-csv <folder>",
		Short: "Write a CSV manifest template for a folder of m4b/m4a files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				if genre == "" {
					genre = svc.cfg.Combine.DefaultGenre
				}
				result, err := manifest.Generate(cmd.Context(), manifest.GenerateOptions{
					Folder: args[0],
					Output: output,
					Genre:  genre,
					Title: func(ctx context.Context, path string) (string, error) {
						track, err := svc.prober.Probe(ctx, path)
						if err != nil {
							return "", err
						}
						return track.Title, nil
					},
					Logger: svc.logger,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Wrote %s (%d files)\n", result.Path, result.Files)
				fmt.Fprintf(out, "Edit the #author, #narrator, and other directives, then run:\n")
				fmt.Fprintf(out, "  m4b-tools combine --csv %q\n", result.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV path (default: <folder>/<folder name>.csv)")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre directive value (defaults to combine.default_genre)")
	return cmd
}
