package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/imagecurator/cmd"
	"github.com/tphakala/imagecurator/cmd/env"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env.Env{}
	rootCmd := cmd.RootCommand(e)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_ = e.Finish()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
