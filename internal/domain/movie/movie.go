package movie

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// SharedMovie is one entry of the shared movie pool. The record is keyed by
// the catalog movie id and is append-only: the first user who shares a movie
// owns the record, later shares of the same id are no-ops.
type SharedMovie struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"not null"`
	PosterURL        string         `json:"poster_url"`
	Runtime          int            `json:"runtime"`
	ReleaseYear      int            `json:"release_year"`
	GenreNames       pq.StringArray `json:"genre_names" gorm:"type:text[]"`
	ShortDescription string         `json:"short_description" gorm:"type:text"`
	NominationStreak int            `json:"nomination_streak" gorm:"not null;default:0"`
	OriginalOwner    string         `json:"original_owner" gorm:"not null"`
	AddedAt          time.Time      `json:"added_at"`
	SharedAt         time.Time      `json:"shared_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (SharedMovie) TableName() string {
	return "shared_movies"
}

// NewSharedMovie builds a pool record from catalog data, recording the
// sharing user as original owner.
func NewSharedMovie(id, title, posterURL string, runtime, releaseYear int, genres []string, description string, ownerID string) *SharedMovie {
	now := time.Now()
	return &SharedMovie{
		ID:               id,
		Title:            title,
		PosterURL:        posterURL,
		Runtime:          runtime,
		ReleaseYear:      releaseYear,
		GenreNames:       pq.StringArray(genres),
		ShortDescription: description,
		NominationStreak: 0,
		OriginalOwner:    ownerID,
		AddedAt:          now,
		SharedAt:         now,
	}
}

// IsUnderdog reports whether the movie qualifies for the underdog scoring
// boost at the given streak threshold.
func (m *SharedMovie) IsUnderdog(threshold int) bool {
	return m.NominationStreak >= threshold
}

// Validate checks if the movie data is valid
func (m *SharedMovie) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if m.Runtime < 0 {
		return fmt.Errorf("runtime must be non-negative")
	}
	if m.NominationStreak < 0 {
		return fmt.Errorf("nomination_streak must be non-negative")
	}
	if strings.TrimSpace(m.OriginalOwner) == "" {
		return fmt.Errorf("original_owner is required")
	}
	return nil
}

// PoolIndex builds a lookup map from a pool listing, keyed by catalog id.
func PoolIndex(pool []*SharedMovie) map[string]*SharedMovie {
	idx := make(map[string]*SharedMovie, len(pool))
	for _, m := range pool {
		idx[m.ID] = m
	}
	return idx
}
