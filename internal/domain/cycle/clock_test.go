package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveCycleIDBeforeRollover(t *testing.T) {
	// 03:59 still belongs to yesterday's movie night.
	now := time.Date(2024, 6, 2, 3, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01", ActiveCycleID(now))
}

func TestActiveCycleIDAfterRollover(t *testing.T) {
	now := time.Date(2024, 6, 2, 4, 1, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-02", ActiveCycleID(now))
}

func TestActiveCycleIDAtRolloverBoundary(t *testing.T) {
	now := time.Date(2024, 6, 2, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-02", ActiveCycleID(now), "04:00 exactly starts the new day")

	midnight := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01", ActiveCycleID(midnight))
}

func TestActiveCycleIDRolloverAcrossMonth(t *testing.T) {
	now := time.Date(2024, 7, 1, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-30", ActiveCycleID(now))
}

func TestCycleDateRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	date, err := CycleDate("2024-06-02", loc)
	require.NoError(t, err)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.June, date.Month())
	assert.Equal(t, 2, date.Day())
	assert.Equal(t, loc, date.Location())
}

func TestCycleDateRejectsMalformedID(t *testing.T) {
	_, err := CycleDate("not-a-date", time.UTC)
	assert.Error(t, err)
}
