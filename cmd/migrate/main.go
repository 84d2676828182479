package main

import (
	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/storage/postgres"
)

// Applies the schema migrations and exits. Useful for deploy pipelines that
// migrate before rolling the API instances.
func main() {
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel)
	log := logger.Migration()

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	log.Info("Migrations completed")
}
