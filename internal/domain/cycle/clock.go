package cycle

import "time"

// RolloverHour is the local hour at which the logical day flips. Movie
// nights regularly run past midnight, so everything before 4 AM still
// belongs to the previous day's cycle.
const RolloverHour = 4

// ActiveCycleID maps a wall-clock timestamp to the date-string id of the
// active cycle. It must be re-derived on every read so a session kept open
// across the rollover picks up the new cycle.
func ActiveCycleID(now time.Time) string {
	if now.Hour() < RolloverHour {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format("2006-01-02")
}

// CycleDate parses a cycle id back into its calendar date, in the given
// location. The zero time and an error are returned for malformed ids.
func CycleDate(id string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", id, loc)
}
