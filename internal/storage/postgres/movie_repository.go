package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// ErrMovieNotFound is returned when no shared movie exists for the given id.
var ErrMovieNotFound = errors.New("movie not found")

// PostgresMovieRepository implements movie.Repository using GORM.
type PostgresMovieRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresMovieRepository creates a new PostgreSQL movie repository
func NewPostgresMovieRepository(db *gorm.DB) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db:  db,
		log: logger.Repository("movie"),
	}
}

func (r *PostgresMovieRepository) Share(m *movie.SharedMovie) (bool, error) {
	r.log.Debug("sharing movie into pool", "movie_id", m.ID, "owner", m.OriginalOwner)

	if err := m.Validate(); err != nil {
		r.log.Error("movie validation failed", "movie_id", m.ID, "error", err)
		return false, fmt.Errorf("movie validation failed: %w", err)
	}

	// First writer wins: the conditional insert is a single atomic
	// statement, so two concurrent shares of the same catalog id cannot
	// both create the record or overwrite each other.
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		r.log.Error("failed to share movie", "movie_id", m.ID, "error", res.Error)
		return false, fmt.Errorf("failed to share movie: %w", res.Error)
	}

	created := res.RowsAffected > 0
	if created {
		r.log.Info("movie shared", "movie_id", m.ID, "title", m.Title, "owner", m.OriginalOwner)
	} else {
		r.log.Debug("movie already in pool, share is a no-op", "movie_id", m.ID)
	}
	return created, nil
}

func (r *PostgresMovieRepository) GetAll() ([]*movie.SharedMovie, error) {
	var movies []*movie.SharedMovie
	if err := r.db.Order("shared_at ASC").Find(&movies).Error; err != nil {
		r.log.Error("failed to list shared movies", "error", err)
		return nil, fmt.Errorf("failed to list shared movies: %w", err)
	}
	return movies, nil
}

func (r *PostgresMovieRepository) GetByID(id string) (*movie.SharedMovie, error) {
	var m movie.SharedMovie
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		r.log.Error("failed to retrieve movie", "movie_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve movie: %w", err)
	}
	return &m, nil
}

func (r *PostgresMovieRepository) GetByIDs(ids []string) ([]*movie.SharedMovie, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var movies []*movie.SharedMovie
	if err := r.db.Where("id IN ?", ids).Find(&movies).Error; err != nil {
		r.log.Error("failed to retrieve movies by ids", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to retrieve movies by ids: %w", err)
	}
	return movies, nil
}

func (r *PostgresMovieRepository) IncrementStreaks(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	r.log.Debug("incrementing nomination streaks", "count", len(ids))

	err := r.db.Model(&movie.SharedMovie{}).
		Where("id IN ?", ids).
		UpdateColumn("nomination_streak", gorm.Expr("nomination_streak + 1")).Error
	if err != nil {
		r.log.Error("failed to increment nomination streaks", "error", err)
		return fmt.Errorf("failed to increment nomination streaks: %w", err)
	}
	return nil
}

func (r *PostgresMovieRepository) ResetStreak(id string) error {
	r.log.Debug("resetting nomination streak", "movie_id", id)

	err := r.db.Model(&movie.SharedMovie{}).
		Where("id = ?", id).
		UpdateColumn("nomination_streak", 0).Error
	if err != nil {
		r.log.Error("failed to reset nomination streak", "movie_id", id, "error", err)
		return fmt.Errorf("failed to reset nomination streak: %w", err)
	}
	return nil
}
