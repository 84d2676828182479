package cycle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPhaseStringRoundTrip(t *testing.T) {
	phases := []Phase{
		PhaseWaitingForDecisions,
		PhaseGatheringNominations,
		PhaseGatheringVotes,
		PhaseReveal,
		PhaseDashboardView,
	}

	for _, p := range phases {
		parsed, valid := PhaseFromString(p.String())
		assert.True(t, valid, "phase %s should round-trip", p)
		assert.Equal(t, p, parsed)
	}
}

func TestPhaseFromStringRejectsUnknown(t *testing.T) {
	_, valid := PhaseFromString("SNACK_BREAK")
	assert.False(t, valid)
}

func TestPhaseJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(PhaseGatheringVotes)
	require.NoError(t, err)
	assert.Equal(t, `"GATHERING_VOTES"`, string(data))

	var p Phase
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, PhaseGatheringVotes, p)
}

func TestPhaseJSONRejectsUnknown(t *testing.T) {
	var p Phase
	assert.Error(t, json.Unmarshal([]byte(`"BOGUS"`), &p))
}

func TestPhaseScanFromStringAndBytes(t *testing.T) {
	var p Phase
	require.NoError(t, p.Scan("REVEAL"))
	assert.Equal(t, PhaseReveal, p)

	require.NoError(t, p.Scan([]byte("DASHBOARD_VIEW")))
	assert.Equal(t, PhaseDashboardView, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, PhaseWaitingForDecisions, p)

	assert.Error(t, p.Scan(42))
}

func TestPhaseValue(t *testing.T) {
	v, err := PhaseGatheringNominations.Value()
	require.NoError(t, err)
	assert.Equal(t, "GATHERING_NOMINATIONS", v)
}

func TestCanTransitionToForwardOnly(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")

	assert.True(t, c.CanTransitionTo(PhaseGatheringNominations))
	assert.False(t, c.CanTransitionTo(PhaseGatheringVotes), "no skipping phases")
	assert.False(t, c.CanTransitionTo(PhaseWaitingForDecisions), "no self transition")

	c.CurrentStatus = PhaseDashboardView
	assert.False(t, c.CanTransitionTo(PhaseWaitingForDecisions), "dashboard is terminal for the day")
}

func TestNewDailyCycleStartsEmpty(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")

	assert.Equal(t, PhaseWaitingForDecisions, c.CurrentStatus)
	assert.Empty(t, c.DecisionsMap())
	assert.Empty(t, c.NominationsMap())
	assert.Empty(t, c.VotesMap())
	assert.Nil(t, c.Winner())
	assert.Equal(t, "03:30", c.ScheduleSettings.Data().FinishByTime)
}

func TestYesVotersSortedAndFiltered(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")
	c.Decisions = datatypes.NewJSONType(map[string]bool{
		"zoe":   true,
		"alice": true,
		"bob":   false,
	})

	assert.Equal(t, []string{"alice", "zoe"}, c.YesVoters())
}

func TestNominatedMovieIDsDeduplicated(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")
	c.Nominations = datatypes.NewJSONType(map[string][]string{
		"alice": {"m2", "m1"},
		"bob":   {"m1", "m3"},
	})

	assert.Equal(t, []string{"m1", "m2", "m3"}, c.NominatedMovieIDs())
}

func TestWinnerRoundTrip(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")
	require.Nil(t, c.Winner())

	c.SetWinner(&WinningMovie{MovieID: "m1", Title: "Movie One", Score: 6})
	w := c.Winner()
	require.NotNil(t, w)
	assert.Equal(t, "m1", w.MovieID)

	c.SetWinner(nil)
	assert.Nil(t, c.Winner())
}

func TestBallotPicks(t *testing.T) {
	b := Ballot{TopPick: "a", ThirdPick: "c"}
	assert.Equal(t, []string{"a", "c"}, b.Picks())
	assert.True(t, b.Names("c"))
	assert.False(t, b.Names("b"))
	assert.False(t, b.Names(""))
}
