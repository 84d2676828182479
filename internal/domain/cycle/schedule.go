package cycle

import (
	"fmt"
	"time"
)

// Showtime is the computed dashboard schedule for the winning movie: when
// to press play so the night wraps up by the configured finish time,
// including snack breaks.
type Showtime struct {
	MovieID        string    `json:"movie_id"`
	StartTime      time.Time `json:"start_time"`
	FinishTime     time.Time `json:"finish_time"`
	TotalBreaks    int       `json:"total_breaks"`
	BreakMinutes   int       `json:"break_minutes"`
	RuntimeMinutes int       `json:"runtime_minutes"`
}

// ComputeShowtime derives the showtime schedule from the cycle's winner and
// schedule settings. One break of breakDurationMin minutes is inserted per
// full breakIntervalMin minutes of runtime. A finish time before noon is
// read as the next calendar day relative to the cycle date.
func ComputeShowtime(c *DailyCycle, breakIntervalMin, breakDurationMin int, loc *time.Location) (*Showtime, error) {
	winner := c.Winner()
	if winner == nil {
		return nil, fmt.Errorf("cycle %s has no winning movie", c.ID)
	}

	finishBy := c.ScheduleSettings.Data().FinishByTime
	finishClock, err := time.Parse("15:04", finishBy)
	if err != nil {
		return nil, fmt.Errorf("invalid finish_by_time %q: %w", finishBy, err)
	}

	cycleDate, err := CycleDate(c.ID, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid cycle id %q: %w", c.ID, err)
	}

	breaks := 0
	if breakIntervalMin > 0 {
		breaks = winner.Runtime / breakIntervalMin
	}
	totalBreakMinutes := breaks * breakDurationMin
	totalMinutes := winner.Runtime + totalBreakMinutes

	finish := time.Date(cycleDate.Year(), cycleDate.Month(), cycleDate.Day(),
		finishClock.Hour(), finishClock.Minute(), 0, 0, loc)
	if finishClock.Hour() < 12 {
		finish = finish.AddDate(0, 0, 1)
	}

	start := finish.Add(-time.Duration(totalMinutes) * time.Minute)

	return &Showtime{
		MovieID:        winner.MovieID,
		StartTime:      start,
		FinishTime:     finish,
		TotalBreaks:    breaks,
		BreakMinutes:   totalBreakMinutes,
		RuntimeMinutes: winner.Runtime,
	}, nil
}

// Reminder is one scheduled alert for the upcoming showtime.
type Reminder struct {
	At      time.Time `json:"at"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// Reminders returns the standard pre-showtime alerts: 30 minutes before,
// 5 minutes before, and at start.
func (s *Showtime) Reminders(movieTitle string) []Reminder {
	return []Reminder{
		{
			At:      s.StartTime.Add(-30 * time.Minute),
			Title:   "Movie Night Reminder",
			Message: fmt.Sprintf("%s starts in 30 minutes! Get your snacks ready!", movieTitle),
		},
		{
			At:      s.StartTime.Add(-5 * time.Minute),
			Title:   "Movie Night Starting Soon",
			Message: fmt.Sprintf("%s is about to start! Time to gather everyone!", movieTitle),
		},
		{
			At:      s.StartTime,
			Title:   "Showtime",
			Message: fmt.Sprintf("It's time for %s! Lights, camera, action!", movieTitle),
		},
	}
}
