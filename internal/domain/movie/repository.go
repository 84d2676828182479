package movie

// Repository is the shared movie pool store.
type Repository interface {
	// Share inserts the movie if no record with its id exists yet; the
	// insert is a single atomic check-and-set, so of two concurrent shares
	// exactly one creates the record and the other is a no-op. It reports
	// whether this call created the record.
	Share(m *SharedMovie) (bool, error)

	// GetAll returns every shared movie.
	GetAll() ([]*SharedMovie, error)

	// GetByID returns one shared movie, or a not-found error.
	GetByID(id string) (*SharedMovie, error)

	// GetByIDs returns the pool records for the given ids; missing ids are
	// simply absent from the result.
	GetByIDs(ids []string) ([]*SharedMovie, error)

	// IncrementStreaks bumps the nomination streak of the given movies.
	IncrementStreaks(ids []string) error

	// ResetStreak zeroes the nomination streak of one movie.
	ResetStreak(id string) error
}
