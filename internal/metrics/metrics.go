package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Evaluations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "movienight_evaluations_total", Help: "Total cycle evaluation runs"},
	)
	PhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "movienight_phase_transitions_total", Help: "Total applied phase transitions"},
		[]string{"from", "to"},
	)
	StaleTransitions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "movienight_stale_transitions_total", Help: "Total transitions skipped because another session already applied them"},
	)
	SharedMovies = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "movienight_shared_movies_total", Help: "Total movies added to the shared pool"},
	)
	ShareConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "movienight_share_conflicts_total", Help: "Total share attempts dropped because the movie was already in the pool"},
	)
	RemindersScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "movienight_reminders_scheduled_total", Help: "Total showtime reminders published"},
	)
)

func Register() {
	prometheus.MustRegister(Evaluations, PhaseTransitions, StaleTransitions, SharedMovies, ShareConflicts, RemindersScheduled)
}
