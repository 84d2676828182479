package cycle

import (
	"time"

	"github.com/gravadigital/movienight-api/internal/domain/movie"
)

// Thresholds are the completion-condition parameters of the phase machine.
type Thresholds struct {
	MinTotalDecisions int
	MinYesDecisions   int
	RevealToDashboard time.Duration
	Scoring           ScoringConfig
}

// DefaultThresholds returns the standard movie-night parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTotalDecisions: 3,
		MinYesDecisions:   2,
		RevealToDashboard: 10 * time.Second,
		Scoring:           DefaultScoringConfig(),
	}
}

// Command is a proposed phase transition. From carries the expected source
// phase so the store can apply it as a compare-and-set: a command computed
// against a stale snapshot silently loses instead of double-advancing.
type Command struct {
	From   Phase
	To     Phase
	Winner *WinningMovie // set only on the transition into the reveal phase
}

// Evaluate decides whether the cycle's current phase is complete and, if so,
// returns the transition to apply. It is a pure function of its inputs:
// callers re-run it after every observed change to decisions, nominations,
// votes or status, and a nil result means nothing to do.
//
// The completion tests are membership based, not count based: a user who
// opted out with an empty nomination list, or who ranked fewer than three
// picks, still counts as submitted.
func Evaluate(c *DailyCycle, pool map[string]*movie.SharedMovie, th Thresholds, now time.Time) *Command {
	switch c.CurrentStatus {
	case PhaseWaitingForDecisions:
		decisions := c.Decisions.Data()
		yes := c.YesVoters()
		if len(decisions) < th.MinTotalDecisions {
			return nil
		}
		if len(yes) < th.MinYesDecisions {
			// Not enough people for movie night: the cycle stays here for
			// the rest of the day, no automatic reset.
			return nil
		}
		return &Command{From: PhaseWaitingForDecisions, To: PhaseGatheringNominations}

	case PhaseGatheringNominations:
		yes := c.YesVoters()
		if len(yes) == 0 || !allSubmittedNominations(c, yes) {
			return nil
		}
		return &Command{From: PhaseGatheringNominations, To: PhaseGatheringVotes}

	case PhaseGatheringVotes:
		yes := c.YesVoters()
		if len(yes) == 0 || !allSubmittedVotes(c, yes) {
			return nil
		}
		// Winner may be nil when no eligible candidate exists; the reveal
		// phase then shows a placeholder instead of a movie.
		return &Command{
			From:   PhaseGatheringVotes,
			To:     PhaseReveal,
			Winner: ComputeWinner(c, pool, th.Scoring),
		}

	case PhaseReveal:
		if c.RevealEnteredAt == nil {
			// Entry timestamp lost: the driver backfills it and re-arms the
			// delay from its own observation time.
			return nil
		}
		if now.Sub(*c.RevealEnteredAt) < th.RevealToDashboard {
			return nil
		}
		return &Command{From: PhaseReveal, To: PhaseDashboardView}

	case PhaseDashboardView:
		return nil
	}

	return nil
}

func allSubmittedNominations(c *DailyCycle, yes []string) bool {
	nominations := c.Nominations.Data()
	for _, userID := range yes {
		if _, ok := nominations[userID]; !ok {
			return false
		}
	}
	return true
}

func allSubmittedVotes(c *DailyCycle, yes []string) bool {
	votes := c.Votes.Data()
	for _, userID := range yes {
		if _, ok := votes[userID]; !ok {
			return false
		}
	}
	return true
}
