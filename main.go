package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pickem-club/standings-engine/app"
	"github.com/pickem-club/standings-engine/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		application.Logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	}()

	application.Logger.Info("Standings engine starting",
		"environment", cfg.Observability.Environment,
	)

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Application exited with error", "error", err)
	}
	application.Logger.Info("Standings engine stopped")
}
