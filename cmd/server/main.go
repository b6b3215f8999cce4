package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/temcen/smartdiet/internal/app"
	"github.com/temcen/smartdiet/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, 30*time.Second); err != nil {
		application.Logger().WithError(err).Fatal("Server exited with error")
	}

	application.Logger().Info("Server exited")
}
