package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"m4btools/internal/apperr"
	"m4btools/internal/deps"
	"m4btools/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that ffmpeg and ffprobe are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				statuses := preflight.CheckSystemDeps(svc.cfg)

				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					state, detail := "missing", s.Detail
					if s.Available {
						state, detail = "ok", s.Resolved
					}
					if colorize {
						state = colorState(state, s.Available)
					}
					rows = append(rows, []string{s.Name, state, detail, s.Description})
				}
				fmt.Fprint(out, renderTable([]string{"Dependency", "Status", "Path", "Purpose"}, rows, nil))

				if version, err := svc.runner.Version(cmd.Context()); err == nil {
					fmt.Fprintf(out, "%s\n", version)
				}
				if missing := deps.Missing(statuses); len(missing) > 0 {
					names := make([]string, len(missing))
					for i, m := range missing {
						names[i] = m.Command
					}
					return apperr.Wrap(apperr.ErrConfiguration, "deps",
						"missing "+strings.Join(names, ", ")+"; install ffmpeg or set ffmpeg.ffmpeg_binary / ffmpeg.ffprobe_binary", nil)
				}
				return nil
			})
		},
	}
}

func colorState(state string, ok bool) string {
	if ok {
		return ansiGreen + state + ansiReset
	}
	return ansiRed + state + ansiReset
}
