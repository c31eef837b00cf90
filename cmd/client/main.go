package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/paaster/internal/client/cli"
	"github.com/dmitrijs2005/paaster/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	root := cli.NewRootCommand(cfg)

	if err := root.ExecuteContext(ctx); err != nil {
		cli.PrintError(root.ErrOrStderr(), err)
		stop()
		os.Exit(1)
	}
}
