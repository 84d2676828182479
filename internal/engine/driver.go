// Package engine runs the cycle evaluation loop. The driver listens to the
// change bus, re-evaluates the active cycle after every mutation (debounced,
// since submissions arrive in bursts), and applies the resulting transition
// through the store's compare-and-set primitives. Several instances can run
// the loop concurrently: whichever applies the transition first wins and the
// rest observe a stale-snapshot no-op.
package engine

import (
	"context"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/metrics"
	"github.com/gravadigital/movienight-api/internal/notify"
)

// Driver wires the pure evaluation function to the stores and the bus.
type Driver struct {
	cycles   cycle.Repository
	movies   movie.Repository
	settings cycle.SettingsRepository
	bus      bus.Bus
	sink     notify.Sink
	cfg      config.CycleConfig
	loc      *time.Location
	now      func() time.Time
	log      *charmlog.Logger

	// kick requests an immediate re-evaluation, bypassing the debounce.
	// Used by the reveal timer.
	kick chan struct{}
}

// NewDriver builds an evaluation driver. loc is the group's local timezone;
// it anchors both the 4 AM cycle rollover and the showtime schedule.
func NewDriver(
	cycles cycle.Repository,
	movies movie.Repository,
	settings cycle.SettingsRepository,
	changeBus bus.Bus,
	sink notify.Sink,
	cfg config.CycleConfig,
	loc *time.Location,
) *Driver {
	return &Driver{
		cycles:   cycles,
		movies:   movies,
		settings: settings,
		bus:      changeBus,
		sink:     sink,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		log:      logger.Engine(),
		kick:     make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled. It evaluates once at startup (to pick
// up transitions that became due while no instance was running), then on
// every debounced burst of change events.
func (d *Driver) Run(ctx context.Context) error {
	events, err := d.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	d.log.Info("Evaluation driver started", "debounce", d.cfg.EvaluateDebounce)

	d.EvaluateActive(ctx)

	debounce := time.NewTimer(d.cfg.EvaluateDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Evaluation driver stopped")
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				d.log.Warn("Change event stream closed")
				return nil
			}
			d.log.Debug("Change event received", "cycle_id", event.CycleID, "kind", event.Kind)
			if pending && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(d.cfg.EvaluateDebounce)
			pending = true

		case <-debounce.C:
			pending = false
			d.EvaluateActive(ctx)

		case <-d.kick:
			if pending {
				if !debounce.Stop() {
					<-debounce.C
				}
				pending = false
			}
			d.EvaluateActive(ctx)
		}
	}
}

// EvaluateActive runs one evaluation pass over today's cycle. Errors are
// logged, not returned: the next change event retries naturally.
func (d *Driver) EvaluateActive(ctx context.Context) {
	now := d.now()
	cycleID := cycle.ActiveCycleID(now.In(d.loc))
	metrics.Evaluations.Inc()

	c, err := d.cycles.Get(cycleID)
	if err != nil {
		// No record yet means nobody has opened the app today.
		d.log.Debug("No active cycle to evaluate", "cycle_id", cycleID, "error", err)
		return
	}

	pool, err := d.movies.GetAll()
	if err != nil {
		d.log.Error("Failed to load movie pool", "cycle_id", cycleID, "error", err)
		return
	}

	th := d.thresholds()

	cmd := cycle.Evaluate(c, movie.PoolIndex(pool), th, now)
	if cmd == nil {
		d.armRevealTimer(c, th, now)
		return
	}

	d.apply(ctx, c, cmd, now)
}

// thresholds merges the stored settings document over the configured
// defaults. The settings store already fills missing fields with defaults.
func (d *Driver) thresholds() cycle.Thresholds {
	th := cycle.Thresholds{
		MinTotalDecisions: d.cfg.MinTotalDecisions,
		MinYesDecisions:   d.cfg.MinYesDecisions,
		RevealToDashboard: d.cfg.RevealToDashboard,
		Scoring:           cycle.DefaultScoringConfig(),
	}
	th.Scoring.UnderdogThreshold = d.cfg.UnderdogBoostThreshold

	if settings, err := d.settings.Get(); err != nil {
		d.log.Warn("Failed to load settings, using defaults", "error", err)
	} else {
		th.Scoring.UnderdogThreshold = settings.UnderdogBoostThreshold
	}
	return th
}

// armRevealTimer schedules a re-evaluation for when the reveal hold expires.
// A cycle stuck in reveal without an entry timestamp gets one backfilled
// first, restarting the hold from now.
func (d *Driver) armRevealTimer(c *cycle.DailyCycle, th cycle.Thresholds, now time.Time) {
	if c.CurrentStatus != cycle.PhaseReveal {
		return
	}

	if c.RevealEnteredAt == nil {
		d.log.Info("Backfilling reveal entry timestamp", "cycle_id", c.ID)
		if err := d.cycles.BackfillRevealEnteredAt(c.ID, now); err != nil {
			d.log.Error("Failed to backfill reveal timestamp", "cycle_id", c.ID, "error", err)
			return
		}
		d.scheduleKick(th.RevealToDashboard)
		return
	}

	remaining := th.RevealToDashboard - now.Sub(*c.RevealEnteredAt)
	if remaining > 0 {
		d.scheduleKick(remaining)
	}
}

func (d *Driver) scheduleKick(after time.Duration) {
	d.log.Debug("Scheduling re-evaluation", "after", after)
	time.AfterFunc(after, func() {
		select {
		case d.kick <- struct{}{}:
		default:
		}
	})
}

// apply executes the transition command against the store. A false result
// from the compare-and-set means another session got there first.
func (d *Driver) apply(ctx context.Context, c *cycle.DailyCycle, cmd *cycle.Command, now time.Time) {
	var (
		applied bool
		err     error
	)

	if cmd.To == cycle.PhaseReveal {
		applied, err = d.cycles.SetWinner(c.ID, cmd.From, cmd.Winner, now)
	} else {
		applied, err = d.cycles.AdvanceStatus(c.ID, cmd.From, cmd.To)
	}
	if err != nil {
		d.log.Error("Failed to apply transition", "cycle_id", c.ID, "from", cmd.From, "to", cmd.To, "error", err)
		return
	}
	if !applied {
		d.log.Debug("Transition already applied elsewhere", "cycle_id", c.ID, "from", cmd.From, "to", cmd.To)
		metrics.StaleTransitions.Inc()
		return
	}

	d.log.Info("Phase transition applied", "cycle_id", c.ID, "from", cmd.From, "to", cmd.To)
	metrics.PhaseTransitions.WithLabelValues(cmd.From.String(), cmd.To.String()).Inc()

	switch cmd.To {
	case cycle.PhaseReveal:
		d.updateStreaks(c, cmd.Winner)
		// Re-arm so the hold expiry is observed even if no further change
		// events arrive.
		d.scheduleKick(d.cfg.RevealToDashboard)
	case cycle.PhaseDashboardView:
		d.scheduleReminders(ctx, c.ID)
	}

	if err := d.bus.Publish(ctx, bus.ChangeEvent{CycleID: c.ID, Kind: bus.KindStatus}); err != nil {
		d.log.Warn("Failed to publish status change", "cycle_id", c.ID, "error", err)
	}
}

// updateStreaks records the nomination outcome in the pool: every nominated
// movie that lost gains a streak point, the winner's streak resets. Streak
// errors never block the transition.
func (d *Driver) updateStreaks(c *cycle.DailyCycle, winner *cycle.WinningMovie) {
	nominated := c.NominatedMovieIDs()
	if len(nominated) == 0 {
		return
	}

	losers := nominated
	if winner != nil {
		losers = make([]string, 0, len(nominated))
		for _, id := range nominated {
			if id != winner.MovieID {
				losers = append(losers, id)
			}
		}
	}

	if len(losers) > 0 {
		if err := d.movies.IncrementStreaks(losers); err != nil {
			d.log.Error("Failed to increment nomination streaks", "cycle_id", c.ID, "error", err)
		}
	}
	if winner != nil {
		if err := d.movies.ResetStreak(winner.MovieID); err != nil {
			d.log.Error("Failed to reset winner streak", "cycle_id", c.ID, "movie_id", winner.MovieID, "error", err)
		}
	}
}

// scheduleReminders publishes the pre-showtime alerts once the dashboard
// phase is reached.
func (d *Driver) scheduleReminders(ctx context.Context, cycleID string) {
	c, err := d.cycles.Get(cycleID)
	if err != nil {
		d.log.Error("Failed to reload cycle for reminders", "cycle_id", cycleID, "error", err)
		return
	}

	winner := c.Winner()
	if winner == nil {
		d.log.Info("Dashboard reached without a winner, skipping reminders", "cycle_id", cycleID)
		return
	}

	breakInterval, breakDuration := d.cfg.BreakIntervalMinutes, d.cfg.BreakDurationMinutes
	if settings, err := d.settings.Get(); err == nil {
		breakInterval, breakDuration = settings.BreakIntervalMinutes, settings.BreakDurationMinutes
	}

	showtime, err := cycle.ComputeShowtime(c, breakInterval, breakDuration, d.loc)
	if err != nil {
		d.log.Error("Failed to compute showtime", "cycle_id", cycleID, "error", err)
		return
	}

	reminders := showtime.Reminders(winner.Title)
	if err := d.sink.Schedule(ctx, cycleID, reminders); err != nil {
		d.log.Error("Failed to schedule reminders", "cycle_id", cycleID, "error", err)
		return
	}
	metrics.RemindersScheduled.Add(float64(len(reminders)))
}
