package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"newsdigest/monitor"
)

func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("DIGEST_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	daemonURL := flag.String("url", defaultURL, "Digest daemon URL")
	flag.Parse()

	program := tea.NewProgram(monitor.NewModel(*daemonURL))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running monitor: %v\n", err)
		os.Exit(1)
	}
}
