// Command importer loads a recipe CSV table into the Postgres catalog.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/catalog"
	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/internal/database"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	csvPath := flag.String("csv", cfg.Catalog.CSVPath, "recipe table to import")
	migrate := flag.Bool("migrate", true, "apply catalog migrations before importing")
	timeout := flag.Duration("timeout", 5*time.Minute, "import deadline")
	flag.Parse()

	if cfg.Database.URL == "" {
		logger.Fatal("DATABASE_URL is required for import")
	}

	if *migrate {
		if err := database.Migrate(cfg.Database.URL, logger); err != nil {
			logger.WithError(err).Fatal("Migration failed")
		}
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect")
	}
	defer db.Close()

	table, err := catalog.LoadCSV(*csvPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read recipe table")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	recipes, err := table.Recipes(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read recipes")
	}
	if err := catalog.NewPostgres(db.PG, logger).Import(ctx, recipes); err != nil {
		logger.WithError(err).Fatal("Import failed")
	}

	logger.WithFields(logrus.Fields{
		"path":    *csvPath,
		"recipes": len(recipes),
	}).Info("Import complete")
}
