// Package validation holds the submission rules for nominations, ballots
// and schedule settings.
package validation

import (
	"fmt"
	"time"

	"github.com/gravadigital/movienight-api/internal/domain/cycle"
)

// ValidateNominations checks a user's nomination list: no duplicates, at
// most maxPerUser entries, and every id present in the shared pool. An
// empty list is valid and means the user opted out of nominating.
func ValidateNominations(movieIDs []string, maxPerUser int, inPool func(id string) bool) error {
	if len(movieIDs) > maxPerUser {
		return fmt.Errorf("at most %d nominations allowed, got %d", maxPerUser, len(movieIDs))
	}

	seen := make(map[string]bool, len(movieIDs))
	for _, id := range movieIDs {
		if id == "" {
			return fmt.Errorf("nomination list contains an empty movie id")
		}
		if seen[id] {
			return fmt.Errorf("movie %s nominated more than once", id)
		}
		seen[id] = true
		if !inPool(id) {
			return fmt.Errorf("movie %s is not in the shared pool", id)
		}
	}
	return nil
}

// ValidateBallot checks a ranked ballot against the nominated slate. The
// ballot must rank exactly min(3, len(nominated)) distinct movies, all of
// them nominated this cycle.
func ValidateBallot(b cycle.Ballot, nominated []string) error {
	required := 3
	if len(nominated) < required {
		required = len(nominated)
	}
	if required == 0 {
		return fmt.Errorf("no movies were nominated this cycle")
	}

	picks := b.Picks()
	if len(picks) != required {
		return fmt.Errorf("ballot must rank exactly %d movies, got %d", required, len(picks))
	}

	slate := make(map[string]bool, len(nominated))
	for _, id := range nominated {
		slate[id] = true
	}

	seen := make(map[string]bool, len(picks))
	for _, id := range picks {
		if seen[id] {
			return fmt.Errorf("movie %s picked more than once", id)
		}
		seen[id] = true
		if !slate[id] {
			return fmt.Errorf("movie %s was not nominated this cycle", id)
		}
	}
	return nil
}

// ValidateFinishTime checks a HH:MM wall-clock string.
func ValidateFinishTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("finish time must be HH:MM, got %q", value)
	}
	return nil
}
