package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/gravadigital/movienight-api/internal/domain/movie"
)

var evalTime = time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)

func decisionsCycle(decisions map[string]bool) *DailyCycle {
	c := NewDailyCycle("2024-06-01", "03:30")
	c.Decisions = datatypes.NewJSONType(decisions)
	return c
}

func TestEvaluateWaitsForMinimumDecisions(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true})
	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime),
		"two of three required decisions keeps the phase open")
}

func TestEvaluateAdvancesWhenDecisionsComplete(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})

	cmd := Evaluate(c, nil, DefaultThresholds(), evalTime)
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseWaitingForDecisions, cmd.From)
	assert.Equal(t, PhaseGatheringNominations, cmd.To)
	assert.Nil(t, cmd.Winner)
}

func TestEvaluateDeadDayStaysPut(t *testing.T) {
	// Enough answers came in but only one person wants to watch: the cycle
	// parks here for the rest of the day.
	c := decisionsCycle(map[string]bool{"alice": true, "bob": false, "carol": false})
	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime))
}

func TestEvaluateNominationsWaitForEveryYesVoter(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseGatheringNominations
	c.Nominations = datatypes.NewJSONType(map[string][]string{"alice": {"m1"}})

	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime),
		"bob has not submitted yet")
}

func TestEvaluateNominationsEmptyListCountsAsSubmitted(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseGatheringNominations
	c.Nominations = datatypes.NewJSONType(map[string][]string{
		"alice": {"m1"},
		"bob":   {},
	})

	cmd := Evaluate(c, nil, DefaultThresholds(), evalTime)
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseGatheringNominations, cmd.From)
	assert.Equal(t, PhaseGatheringVotes, cmd.To)
}

func TestEvaluateNominationsIgnoreNoVoters(t *testing.T) {
	// carol said no; her missing nomination list must not block the phase.
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseGatheringNominations
	c.Nominations = datatypes.NewJSONType(map[string][]string{
		"alice": {"m1"},
		"bob":   {"m2"},
	})

	require.NotNil(t, Evaluate(c, nil, DefaultThresholds(), evalTime))
}

func TestEvaluateVotesProduceRevealCommandWithWinner(t *testing.T) {
	pool := movie.PoolIndex([]*movie.SharedMovie{
		movie.NewSharedMovie("m1", "Movie One", "", 100, 2020, nil, "", "alice"),
		movie.NewSharedMovie("m2", "Movie Two", "", 90, 2021, nil, "", "bob"),
	})

	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseGatheringVotes
	c.Nominations = datatypes.NewJSONType(map[string][]string{
		"alice": {"m1"},
		"bob":   {"m2"},
	})
	c.Votes = datatypes.NewJSONType(map[string]Ballot{
		"alice": {TopPick: "m1", SecondPick: "m2"},
		"bob":   {TopPick: "m1", SecondPick: "m2"},
	})

	cmd := Evaluate(c, pool, DefaultThresholds(), evalTime)
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseGatheringVotes, cmd.From)
	assert.Equal(t, PhaseReveal, cmd.To)
	require.NotNil(t, cmd.Winner)
	assert.Equal(t, "m1", cmd.Winner.MovieID)
	assert.Equal(t, 6, cmd.Winner.Score)
}

func TestEvaluateVotesWaitForEveryYesVoter(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseGatheringVotes
	c.Nominations = datatypes.NewJSONType(map[string][]string{"alice": {"m1"}, "bob": {}})
	c.Votes = datatypes.NewJSONType(map[string]Ballot{"alice": {TopPick: "m1"}})

	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime))
}

func TestEvaluateRevealHoldsUntilDelayElapses(t *testing.T) {
	th := DefaultThresholds()

	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseReveal
	entered := evalTime.Add(-5 * time.Second)
	c.RevealEnteredAt = &entered

	assert.Nil(t, Evaluate(c, nil, th, evalTime), "only half the hold has elapsed")

	later := evalTime.Add(6 * time.Second)
	cmd := Evaluate(c, nil, th, later)
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseReveal, cmd.From)
	assert.Equal(t, PhaseDashboardView, cmd.To)
}

func TestEvaluateRevealWithoutTimestampDoesNothing(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseReveal

	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime),
		"a lost entry timestamp is backfilled by the driver, not advanced past")
}

func TestEvaluateDashboardIsTerminal(t *testing.T) {
	c := decisionsCycle(map[string]bool{"alice": true, "bob": true, "carol": false})
	c.CurrentStatus = PhaseDashboardView

	assert.Nil(t, Evaluate(c, nil, DefaultThresholds(), evalTime))
}
