package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrylevesque/convoportal/cmd/convoportal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
