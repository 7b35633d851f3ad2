// Command newsdigest runs one digest cycle and exits.
//
// Usage:
//
//	newsdigest [config.yml]
//
// Exit code is 0 even when stages degrade, unless REPORT_FAIL_EXIT_CODE is set,
// in which case a degraded run exits 2. Invalid configuration exits 1.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsdigest/app"
	"newsdigest/config"
	"newsdigest/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error("Failed to build pipeline", logger.Error(err))
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Close failed", logger.Error(err))
		}
	}()

	report := a.Runner.RunOnce(ctx)
	if cfg.ReportFailExitCode && report.Degraded() {
		return 2
	}
	return 0
}
