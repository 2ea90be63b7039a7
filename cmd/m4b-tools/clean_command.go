package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4btools/internal/logging"
	"m4btools/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		cacheAge  time.Duration
		list      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned work directories, old probe cache rows, and old logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *services) error {
				cfg := svc.cfg
				out := cmd.OutOrStdout()
				if list {
					return printWorkDirectories(cmd, cfg.Paths.WorkDir)
				}

				result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, olderThan, svc.logger)
				fmt.Fprintf(out, "Removed %d work directories\n", len(result.Removed))
				for _, e := range result.Errors {
					fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
				}

				if svc.cache.Enabled() {
					pruned, err := svc.cache.Prune(cmd.Context(), cacheAge)
					if err != nil {
						return fmt.Errorf("prune probe cache: %w", err)
					}
					fmt.Fprintf(out, "Pruned %d probe cache entries\n", pruned)
				}

				logs := logging.CleanupOldLogs(svc.logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
				fmt.Fprintf(out, "Removed %d old log files\n", logs)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Minimum age of work directories to remove")
	cmd.Flags().DurationVar(&cacheAge, "cache-age", 30*24*time.Hour, "Remove probe cache entries older than this")
	cmd.Flags().BoolVar(&list, "list", false, "List work directories instead of removing them")
	return cmd
}

func printWorkDirectories(cmd *cobra.Command, root string) error {
	dirs, err := staging.ListDirectories(root)
	if err != nil {
		return fmt.Errorf("list work directories: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(dirs) == 0 {
		fmt.Fprintln(out, "No work directories found")
		return nil
	}
	var total int64
	rows := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		total += dir.Size
		rows = append(rows, []string{dir.Name, humanize.Time(dir.ModTime), humanize.IBytes(uint64(dir.Size))})
	}
	fmt.Fprint(out, renderTable([]string{"Directory", "Modified", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
	fmt.Fprintf(out, "Total: %d directories, %s\n", len(dirs), humanize.IBytes(uint64(total)))
	return nil
}
