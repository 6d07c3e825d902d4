package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot migrate")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	logger.Info("schema migration completed", slog.Int("tables", len(migrations.Models())))
}
