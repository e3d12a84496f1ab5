package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"bin-telemetry-service/internal/adapters/repositories"
	"bin-telemetry-service/internal/config"
	"bin-telemetry-service/internal/platform/db"
	"bin-telemetry-service/internal/platform/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", ".", "directory containing config.yaml")
	seedOnly := flag.Bool("seed-only", false, "skip schema initialization")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, "console", "dbtool")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	seedPath := config.Get("SEED_PATH", cfg.Database.SeedPath)
	if err := initAndSeed(sqlDB, seedPath, !*seedOnly, log); err != nil {
		log.Fatal("dbtool failed", zap.Error(err))
	}
}

func initAndSeed(sqlDB *sql.DB, seedPath string, initSchema bool, log *zap.Logger) error {
	if initSchema {
		log.Info("Initializing database schema...")
		if err := repositories.InitSchema(sqlDB); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		log.Info("Schema ready.")
	}

	log.Info("Seeding database...", zap.String("path", seedPath))
	if err := repositories.SeedFromJSON(sqlDB, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info("Seeding complete.")

	return nil
}
