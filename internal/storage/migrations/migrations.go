package migrations

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/domain/presence"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// RunMigrations migrates the schema for every model and seeds the singleton
// settings document when absent.
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	models := []any{
		&movie.SharedMovie{},
		&cycle.DailyCycle{},
		&cycle.AppSettings{},
		&presence.ActiveUser{},
	}

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			log.Error("migration failed", "model", fmt.Sprintf("%T", model), "error", err)
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
		log.Debug("migrated model", "model", fmt.Sprintf("%T", model))
	}

	if err := seedSettings(db); err != nil {
		return err
	}

	log.Info("all migrations applied", "models", len(models))
	return nil
}

// seedSettings inserts the default app settings row if none exists yet.
func seedSettings(db *gorm.DB) error {
	defaults := cycle.AppSettings{
		ID:                     1,
		DefaultFinishTime:      "03:30",
		UnderdogBoostThreshold: 5,
		BreakIntervalMinutes:   40,
		BreakDurationMinutes:  15,
		MaxNominationsPerUser:  3,
	}

	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
	if err != nil {
		return fmt.Errorf("failed to seed app settings: %w", err)
	}
	return nil
}
