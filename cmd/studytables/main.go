package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studytables/internal/app"
	"studytables/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON configuration file (optional)")
	flag.Parse()

	cfg := config.LoadWithPrecedence(*configPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := application.Start(startCtx); err != nil {
		cancel()
		log.Fatalf("Failed to start application: %v", err)
	}
	cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down", sig)

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Stop(stopCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
