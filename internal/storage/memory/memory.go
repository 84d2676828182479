// Package memory provides in-memory repository implementations used by
// tests and local development.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/domain/presence"
)

// InMemoryCycleRepository is a map-backed cycle.Repository. A single mutex
// stands in for the database's row locking.
type InMemoryCycleRepository struct {
	mu                sync.Mutex
	cycles            map[string]*cycle.DailyCycle
	defaultFinishTime string
}

func NewInMemoryCycleRepository(defaultFinishTime string) *InMemoryCycleRepository {
	return &InMemoryCycleRepository{
		cycles:            make(map[string]*cycle.DailyCycle),
		defaultFinishTime: defaultFinishTime,
	}
}

func (r *InMemoryCycleRepository) GetOrCreate(id string) (*cycle.DailyCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cycles[id]; !ok {
		r.cycles[id] = cycle.NewDailyCycle(id, r.defaultFinishTime)
	}
	return r.snapshot(id), nil
}

func (r *InMemoryCycleRepository) Get(id string) (*cycle.DailyCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cycles[id]; !ok {
		return nil, errors.New("cycle not found")
	}
	return r.snapshot(id), nil
}

func (r *InMemoryCycleRepository) SetDecision(cycleID, userID string, decision bool) error {
	return r.mutate(cycleID, func(c *cycle.DailyCycle) {
		decisions := c.DecisionsMap()
		decisions[userID] = decision
		c.ReplaceDecisions(decisions)
	})
}

func (r *InMemoryCycleRepository) SetNominations(cycleID, userID string, movieIDs []string) error {
	if movieIDs == nil {
		movieIDs = []string{}
	}
	return r.mutate(cycleID, func(c *cycle.DailyCycle) {
		nominations := c.NominationsMap()
		nominations[userID] = movieIDs
		c.ReplaceNominations(nominations)
	})
}

func (r *InMemoryCycleRepository) SetVote(cycleID, userID string, ballot cycle.Ballot) error {
	return r.mutate(cycleID, func(c *cycle.DailyCycle) {
		votes := c.VotesMap()
		votes[userID] = ballot
		c.ReplaceVotes(votes)
	})
}

func (r *InMemoryCycleRepository) AdvanceStatus(cycleID string, from, to cycle.Phase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cycles[cycleID]
	if !ok {
		return false, errors.New("cycle not found")
	}
	if c.CurrentStatus != from {
		return false, nil
	}
	c.CurrentStatus = to
	return true, nil
}

func (r *InMemoryCycleRepository) SetWinner(cycleID string, from cycle.Phase, winner *cycle.WinningMovie, enteredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cycles[cycleID]
	if !ok {
		return false, errors.New("cycle not found")
	}
	if c.CurrentStatus != from {
		return false, nil
	}
	c.CurrentStatus = cycle.PhaseReveal
	c.SetWinner(winner)
	at := enteredAt
	c.RevealEnteredAt = &at
	return true, nil
}

func (r *InMemoryCycleRepository) BackfillRevealEnteredAt(cycleID string, at time.Time) error {
	return r.mutate(cycleID, func(c *cycle.DailyCycle) {
		if c.CurrentStatus == cycle.PhaseReveal && c.RevealEnteredAt == nil {
			t := at
			c.RevealEnteredAt = &t
		}
	})
}

func (r *InMemoryCycleRepository) Reset(cycleID string) (*cycle.DailyCycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycles[cycleID] = cycle.NewDailyCycle(cycleID, r.defaultFinishTime)
	return r.snapshot(cycleID), nil
}

func (r *InMemoryCycleRepository) mutate(cycleID string, fn func(*cycle.DailyCycle)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cycles[cycleID]
	if !ok {
		return errors.New("cycle not found")
	}
	fn(c)
	return nil
}

// snapshot returns a copy so callers never mutate stored state directly.
// Callers must hold the mutex.
func (r *InMemoryCycleRepository) snapshot(id string) *cycle.DailyCycle {
	c := r.cycles[id]
	out := *c
	out.ReplaceDecisions(c.DecisionsMap())
	out.ReplaceNominations(c.NominationsMap())
	out.ReplaceVotes(c.VotesMap())
	return &out
}

// InMemoryMovieRepository is a map-backed movie.Repository.
type InMemoryMovieRepository struct {
	mu     sync.Mutex
	movies map[string]*movie.SharedMovie
}

func NewInMemoryMovieRepository() *InMemoryMovieRepository {
	return &InMemoryMovieRepository{movies: make(map[string]*movie.SharedMovie)}
}

func (r *InMemoryMovieRepository) Share(m *movie.SharedMovie) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[m.ID]; ok {
		return false, nil
	}
	copied := *m
	r.movies[m.ID] = &copied
	return true, nil
}

func (r *InMemoryMovieRepository) GetAll() ([]*movie.SharedMovie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	movies := make([]*movie.SharedMovie, 0, len(r.movies))
	for _, m := range r.movies {
		copied := *m
		movies = append(movies, &copied)
	}
	return movies, nil
}

func (r *InMemoryMovieRepository) GetByID(id string) (*movie.SharedMovie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movies[id]
	if !ok {
		return nil, errors.New("movie not found")
	}
	copied := *m
	return &copied, nil
}

func (r *InMemoryMovieRepository) GetByIDs(ids []string) ([]*movie.SharedMovie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var movies []*movie.SharedMovie
	for _, id := range ids {
		if m, ok := r.movies[id]; ok {
			copied := *m
			movies = append(movies, &copied)
		}
	}
	return movies, nil
}

func (r *InMemoryMovieRepository) IncrementStreaks(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if m, ok := r.movies[id]; ok {
			m.NominationStreak++
		}
	}
	return nil
}

func (r *InMemoryMovieRepository) ResetStreak(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.movies[id]; ok {
		m.NominationStreak = 0
	}
	return nil
}

// InMemorySettingsRepository returns fixed settings.
type InMemorySettingsRepository struct {
	mu       sync.Mutex
	settings cycle.AppSettings
}

func NewInMemorySettingsRepository(settings cycle.AppSettings) *InMemorySettingsRepository {
	return &InMemorySettingsRepository{settings: settings}
}

func (r *InMemorySettingsRepository) Get() (*cycle.AppSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.settings
	return &s, nil
}

func (r *InMemorySettingsRepository) Save(settings *cycle.AppSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings = *settings
	return nil
}

// InMemoryPresenceRepository is a map-backed presence.Repository.
type InMemoryPresenceRepository struct {
	mu    sync.Mutex
	users map[string]*presence.ActiveUser
}

func NewInMemoryPresenceRepository() *InMemoryPresenceRepository {
	return &InMemoryPresenceRepository{users: make(map[string]*presence.ActiveUser)}
}

func (r *InMemoryPresenceRepository) Heartbeat(userID, displayName string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[userID] = &presence.ActiveUser{UserID: userID, DisplayName: displayName, LastSeen: at}
	return nil
}

func (r *InMemoryPresenceRepository) ActiveSince(t time.Time) ([]*presence.ActiveUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*presence.ActiveUser
	for _, u := range r.users {
		if !u.LastSeen.Before(t) {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, nil
}
