package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crimson-sun/aspectflow/internal/config"

	// Register connector implementations.
	_ "github.com/crimson-sun/aspectflow/internal/connector/csvfile"
	_ "github.com/crimson-sun/aspectflow/internal/connector/ndjson"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "aspectflow: %v\n", err)
		os.Exit(1)
	}

	// Set up graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
