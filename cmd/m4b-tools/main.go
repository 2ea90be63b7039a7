package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"m4btools/internal/apperr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if apperr.IsInterrupt(err) {
			fmt.Fprintln(os.Stderr, "Interrupted")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return apperr.ExitCode(err)
}
