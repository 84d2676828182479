package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// ErrCycleNotFound is returned when no cycle row exists for the given id.
var ErrCycleNotFound = errors.New("cycle not found")

// PostgresCycleRepository implements cycle.Repository using GORM.
//
// Map mutations take a row lock before the read-modify-write of the JSONB
// column, so concurrent submissions from different users serialize instead
// of clobbering each other. Status changes are plain compare-and-set
// UPDATEs guarded by the expected source phase.
type PostgresCycleRepository struct {
	db                *gorm.DB
	log               *log.Logger
	defaultFinishTime string
}

// NewPostgresCycleRepository creates a new PostgreSQL cycle repository
func NewPostgresCycleRepository(db *gorm.DB, defaultFinishTime string) *PostgresCycleRepository {
	return &PostgresCycleRepository{
		db:                db,
		log:               logger.Repository("cycle"),
		defaultFinishTime: defaultFinishTime,
	}
}

func (r *PostgresCycleRepository) GetOrCreate(id string) (*cycle.DailyCycle, error) {
	r.log.Debug("get-or-create cycle", "cycle_id", id)

	fresh := cycle.NewDailyCycle(id, r.defaultFinishTime)

	// Insert-if-absent: when two sessions race here, exactly one row is
	// created and both read the same document back.
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		r.log.Error("failed to create cycle", "cycle_id", id, "error", err)
		return nil, fmt.Errorf("failed to create cycle: %w", err)
	}

	return r.Get(id)
}

func (r *PostgresCycleRepository) Get(id string) (*cycle.DailyCycle, error) {
	var c cycle.DailyCycle
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("cycle not found", "cycle_id", id)
			return nil, ErrCycleNotFound
		}
		r.log.Error("failed to retrieve cycle", "cycle_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve cycle: %w", err)
	}
	return &c, nil
}

func (r *PostgresCycleRepository) SetDecision(cycleID, userID string, decision bool) error {
	r.log.Debug("recording decision", "cycle_id", cycleID, "user_id", userID, "decision", decision)

	return r.mutateColumn(cycleID, "decisions", func(c *cycle.DailyCycle) any {
		decisions := c.DecisionsMap()
		decisions[userID] = decision
		return datatypes.NewJSONType(decisions)
	})
}

func (r *PostgresCycleRepository) SetNominations(cycleID, userID string, movieIDs []string) error {
	r.log.Debug("recording nominations", "cycle_id", cycleID, "user_id", userID, "count", len(movieIDs))

	if movieIDs == nil {
		movieIDs = []string{}
	}

	return r.mutateColumn(cycleID, "nominations", func(c *cycle.DailyCycle) any {
		nominations := c.NominationsMap()
		nominations[userID] = movieIDs
		return datatypes.NewJSONType(nominations)
	})
}

func (r *PostgresCycleRepository) SetVote(cycleID, userID string, ballot cycle.Ballot) error {
	r.log.Debug("recording vote", "cycle_id", cycleID, "user_id", userID)

	return r.mutateColumn(cycleID, "votes", func(c *cycle.DailyCycle) any {
		votes := c.VotesMap()
		votes[userID] = ballot
		return datatypes.NewJSONType(votes)
	})
}

// mutateColumn applies a read-modify-write of a single JSONB column under a
// row lock, as one transaction.
func (r *PostgresCycleRepository) mutateColumn(cycleID, column string, fn func(*cycle.DailyCycle) any) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var c cycle.DailyCycle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", cycleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCycleNotFound
			}
			return err
		}

		value := fn(&c)
		return tx.Model(&cycle.DailyCycle{}).Where("id = ?", cycleID).Update(column, value).Error
	})
	if err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return err
		}
		r.log.Error("failed to update cycle column", "cycle_id", cycleID, "column", column, "error", err)
		return fmt.Errorf("failed to update cycle %s: %w", column, err)
	}
	return nil
}

func (r *PostgresCycleRepository) AdvanceStatus(cycleID string, from, to cycle.Phase) (bool, error) {
	r.log.Debug("advancing cycle status", "cycle_id", cycleID, "from", from, "to", to)

	res := r.db.Model(&cycle.DailyCycle{}).
		Where("id = ? AND current_status = ?", cycleID, from).
		Update("current_status", to)
	if res.Error != nil {
		r.log.Error("failed to advance cycle status", "cycle_id", cycleID, "error", res.Error)
		return false, fmt.Errorf("failed to advance cycle status: %w", res.Error)
	}

	advanced := res.RowsAffected > 0
	if advanced {
		r.log.Info("cycle status advanced", "cycle_id", cycleID, "from", from, "to", to)
	} else {
		r.log.Debug("cycle status advance skipped, source phase stale", "cycle_id", cycleID, "expected", from)
	}
	return advanced, nil
}

func (r *PostgresCycleRepository) SetWinner(cycleID string, from cycle.Phase, winner *cycle.WinningMovie, enteredAt time.Time) (bool, error) {
	r.log.Debug("revealing winner", "cycle_id", cycleID, "has_winner", winner != nil)

	updates := map[string]any{
		"current_status":    cycle.PhaseReveal,
		"reveal_entered_at": enteredAt,
	}
	if winner != nil {
		updates["winning_movie"] = datatypes.NewJSONType(*winner)
	} else {
		updates["winning_movie"] = nil
	}

	res := r.db.Model(&cycle.DailyCycle{}).
		Where("id = ? AND current_status = ?", cycleID, from).
		Updates(updates)
	if res.Error != nil {
		r.log.Error("failed to set winner", "cycle_id", cycleID, "error", res.Error)
		return false, fmt.Errorf("failed to set winner: %w", res.Error)
	}

	revealed := res.RowsAffected > 0
	if revealed {
		movieID := ""
		if winner != nil {
			movieID = winner.MovieID
		}
		r.log.Info("winner revealed", "cycle_id", cycleID, "movie_id", movieID)
	}
	return revealed, nil
}

func (r *PostgresCycleRepository) BackfillRevealEnteredAt(cycleID string, at time.Time) error {
	res := r.db.Model(&cycle.DailyCycle{}).
		Where("id = ? AND current_status = ? AND reveal_entered_at IS NULL", cycleID, cycle.PhaseReveal).
		Update("reveal_entered_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to backfill reveal timestamp: %w", res.Error)
	}
	return nil
}

func (r *PostgresCycleRepository) Reset(cycleID string) (*cycle.DailyCycle, error) {
	r.log.Info("resetting cycle", "cycle_id", cycleID)

	// Delete + recreate inside one transaction so no reader observes a
	// missing document.
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", cycleID).Delete(&cycle.DailyCycle{}).Error; err != nil {
			return err
		}
		return tx.Create(cycle.NewDailyCycle(cycleID, r.defaultFinishTime)).Error
	})
	if err != nil {
		r.log.Error("failed to reset cycle", "cycle_id", cycleID, "error", err)
		return nil, fmt.Errorf("failed to reset cycle: %w", err)
	}

	return r.Get(cycleID)
}
