package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/config"
	"headless-storefront/internal/db"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/migrate"
	"headless-storefront/internal/storage"
)

// Applies the device state migrations for the configured state driver.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	if err := cfg.ValidateState(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	switch cfg.State.Driver {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.State.DBConnString, logger)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	case "sqlite":
		// Opening the store migrates it.
		store, err := storage.OpenSQLite(ctx, cfg.State.SQLitePath, cfg.State.DeviceID, logger)
		if err != nil {
			logger.Fatalf("open sqlite: %v", err)
		}
		defer store.Close()
	default:
		logger.WithField("driver", cfg.State.Driver).Info("nothing to migrate")
		return
	}

	logger.WithField("driver", cfg.State.Driver).Info("migrations applied")
}
