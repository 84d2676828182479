package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboardCycle(runtime int, finishBy string) *DailyCycle {
	c := NewDailyCycle("2024-06-01", finishBy)
	c.CurrentStatus = PhaseDashboardView
	c.SetWinner(&WinningMovie{MovieID: "m1", Title: "Movie One", Runtime: runtime})
	return c
}

func TestComputeShowtimeInsertsBreaks(t *testing.T) {
	// 120 minutes of runtime at one 15-minute break per 40 minutes gives
	// three breaks: 120 + 45 = 165 minutes total.
	c := dashboardCycle(120, "03:30")

	showtime, err := ComputeShowtime(c, 40, 15, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 3, showtime.TotalBreaks)
	assert.Equal(t, 45, showtime.BreakMinutes)
	assert.Equal(t, 120, showtime.RuntimeMinutes)

	// Finish 03:30 is before noon, so it lands on June 2nd.
	assert.Equal(t, time.Date(2024, 6, 2, 3, 30, 0, 0, time.UTC), showtime.FinishTime)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 45, 0, 0, time.UTC), showtime.StartTime)
}

func TestComputeShowtimeEveningFinishSameDay(t *testing.T) {
	c := dashboardCycle(90, "23:00")

	showtime, err := ComputeShowtime(c, 40, 15, time.UTC)
	require.NoError(t, err)

	// 90 minutes runtime plus two breaks of 15 = 120 minutes.
	assert.Equal(t, 2, showtime.TotalBreaks)
	assert.Equal(t, time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC), showtime.FinishTime)
	assert.Equal(t, time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC), showtime.StartTime)
}

func TestComputeShowtimeShortMovieNoBreaks(t *testing.T) {
	c := dashboardCycle(35, "22:00")

	showtime, err := ComputeShowtime(c, 40, 15, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, showtime.TotalBreaks)
	assert.Equal(t, time.Date(2024, 6, 1, 21, 25, 0, 0, time.UTC), showtime.StartTime)
}

func TestComputeShowtimeRequiresWinner(t *testing.T) {
	c := NewDailyCycle("2024-06-01", "03:30")
	_, err := ComputeShowtime(c, 40, 15, time.UTC)
	assert.Error(t, err)
}

func TestComputeShowtimeRejectsBadFinishTime(t *testing.T) {
	c := dashboardCycle(100, "half past nine")
	_, err := ComputeShowtime(c, 40, 15, time.UTC)
	assert.Error(t, err)
}

func TestRemindersRelativeToStart(t *testing.T) {
	start := time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)
	s := &Showtime{MovieID: "m1", StartTime: start}

	reminders := s.Reminders("Movie One")
	require.Len(t, reminders, 3)
	assert.Equal(t, start.Add(-30*time.Minute), reminders[0].At)
	assert.Equal(t, start.Add(-5*time.Minute), reminders[1].At)
	assert.Equal(t, start, reminders[2].At)
	assert.Contains(t, reminders[0].Message, "Movie One")
}
