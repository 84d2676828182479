package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/logger"
)

const settingsRowID = 1

// PostgresSettingsRepository reads the singleton app_settings document,
// falling back to the provided defaults when the row is absent or a field
// was never set.
type PostgresSettingsRepository struct {
	db       *gorm.DB
	log      *log.Logger
	defaults cycle.AppSettings
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings repository
func NewPostgresSettingsRepository(db *gorm.DB, defaults cycle.AppSettings) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{
		db:       db,
		log:      logger.Repository("settings"),
		defaults: defaults,
	}
}

func (r *PostgresSettingsRepository) Get() (*cycle.AppSettings, error) {
	var s cycle.AppSettings
	if err := r.db.First(&s, "id = ?", settingsRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("settings row absent, using defaults")
			defaults := r.defaults
			defaults.ID = settingsRowID
			return &defaults, nil
		}
		r.log.Error("failed to read settings", "error", err)
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	r.applyDefaults(&s)
	return &s, nil
}

func (r *PostgresSettingsRepository) Save(settings *cycle.AppSettings) error {
	settings.ID = settingsRowID

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settings).Error
	if err != nil {
		r.log.Error("failed to save settings", "error", err)
		return fmt.Errorf("failed to save settings: %w", err)
	}

	r.log.Info("settings saved",
		"underdog_boost_threshold", settings.UnderdogBoostThreshold,
		"max_nominations_per_user", settings.MaxNominationsPerUser)
	return nil
}

// applyDefaults fills zero-valued fields so a partially written settings
// document never disables a threshold outright.
func (r *PostgresSettingsRepository) applyDefaults(s *cycle.AppSettings) {
	if s.DefaultFinishTime == "" {
		s.DefaultFinishTime = r.defaults.DefaultFinishTime
	}
	if s.UnderdogBoostThreshold == 0 {
		s.UnderdogBoostThreshold = r.defaults.UnderdogBoostThreshold
	}
	if s.BreakIntervalMinutes == 0 {
		s.BreakIntervalMinutes = r.defaults.BreakIntervalMinutes
	}
	if s.BreakDurationMinutes == 0 {
		s.BreakDurationMinutes = r.defaults.BreakDurationMinutes
	}
	if s.MaxNominationsPerUser == 0 {
		s.MaxNominationsPerUser = r.defaults.MaxNominationsPerUser
	}
}
