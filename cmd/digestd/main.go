// Command digestd runs the digest on a cron schedule and serves the
// control API (/api/digest/*), health and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdigest/api"
	"newsdigest/app"
	"newsdigest/config"
	"newsdigest/logger"
	"newsdigest/state"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides DIGEST_CONFIG)")
	runNow := flag.Bool("run-now", false, "Trigger a run immediately after startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(context.Background(), cfg, log, app.Options{})
	if err != nil {
		log.Error("Failed to build pipeline", logger.Error(err))
		os.Exit(1)
	}

	server := api.NewServer(api.Config{
		Port:     cfg.Server.Port,
		State:    state.NewManager(),
		Runner:   a.Runner,
		Gatherer: a.Registry,
		Location: cfg.Location(),
		Logger:   log,
	})

	if err := server.Start(); err != nil {
		log.Error("Failed to start server", logger.Error(err))
		os.Exit(1)
	}
	if err := server.StartCron(cfg.Server.Schedule); err != nil {
		log.Error("Failed to start cron", logger.Error(err))
		os.Exit(1)
	}
	if *runNow {
		server.Trigger("startup")
	}

	log.Info("Digest daemon ready",
		logger.String("port", cfg.Server.Port),
		logger.String("schedule", cfg.Server.Schedule),
		logger.String("timezone", cfg.Location().String()),
		logger.Int("feeds", len(cfg.Feeds.URLs)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Shutdown error", logger.Error(err))
		exitCode = 1
	}
	if err := a.Close(); err != nil {
		log.Warn("Close failed", logger.Error(err))
	}
	log.Info("Server stopped")
	_ = log.Sync()
	os.Exit(exitCode)
}
