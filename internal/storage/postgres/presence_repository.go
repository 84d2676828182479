package postgres

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/movienight-api/internal/domain/presence"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// PostgresPresenceRepository implements presence.Repository using GORM.
type PostgresPresenceRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresPresenceRepository creates a new PostgreSQL presence repository
func NewPostgresPresenceRepository(db *gorm.DB) *PostgresPresenceRepository {
	return &PostgresPresenceRepository{
		db:  db,
		log: logger.Repository("presence"),
	}
}

func (r *PostgresPresenceRepository) Heartbeat(userID, displayName string, at time.Time) error {
	record := presence.ActiveUser{
		UserID:      userID,
		DisplayName: displayName,
		LastSeen:    at,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		r.log.Error("failed to record heartbeat", "user_id", userID, "error", err)
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

func (r *PostgresPresenceRepository) ActiveSince(t time.Time) ([]*presence.ActiveUser, error) {
	var users []*presence.ActiveUser
	if err := r.db.Where("last_seen >= ?", t).Order("display_name ASC").Find(&users).Error; err != nil {
		r.log.Error("failed to list active users", "error", err)
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}
