package cycle

import "time"

// Repository is the daily cycle store. Every mutating operation is a single
// atomic update against the cycle row; AdvanceStatus and SetWinner are
// compare-and-set so redundant engine evaluations cannot double-advance.
type Repository interface {
	// GetOrCreate loads the cycle for the given id, lazily creating it in
	// the waiting-for-decisions phase when absent.
	GetOrCreate(id string) (*DailyCycle, error)

	// Get loads an existing cycle.
	Get(id string) (*DailyCycle, error)

	// SetDecision writes decisions[userID]. The decide-once policy is
	// enforced by the submission path, not here.
	SetDecision(cycleID, userID string, decision bool) error

	// SetNominations writes nominations[userID]; the list may be empty
	// (the user opted out but still counts as submitted).
	SetNominations(cycleID, userID string, movieIDs []string) error

	// SetVote writes votes[userID].
	SetVote(cycleID, userID string, ballot Ballot) error

	// AdvanceStatus moves current_status from -> to. It reports false when
	// the cycle was no longer in the expected source phase.
	AdvanceStatus(cycleID string, from, to Phase) (bool, error)

	// SetWinner writes the winner, the reveal entry timestamp and
	// current_status = REVEAL as one atomic update, guarded like
	// AdvanceStatus. A nil winner is valid (reveal with placeholder).
	SetWinner(cycleID string, from Phase, winner *WinningMovie, enteredAt time.Time) (bool, error)

	// BackfillRevealEnteredAt sets the reveal entry timestamp on a cycle
	// that is in REVEAL but lost it (pre-migration records).
	BackfillRevealEnteredAt(cycleID string, at time.Time) error

	// Reset atomically deletes and recreates the cycle with empty maps in
	// the waiting-for-decisions phase. Readers never observe the gap.
	Reset(cycleID string) (*DailyCycle, error)
}

// AppSettings is the singleton configuration document consumed by the phase
// transition and scoring engines. Missing values fall back to in-process
// defaults at read time.
type AppSettings struct {
	ID                     int    `json:"-" gorm:"primaryKey"`
	DefaultFinishTime      string `json:"default_finish_time"`
	UnderdogBoostThreshold int    `json:"underdog_boost_threshold"`
	BreakIntervalMinutes   int    `json:"break_interval_minutes"`
	BreakDurationMinutes   int    `json:"break_duration_minutes"`
	MaxNominationsPerUser  int    `json:"max_nominations_per_user"`
}

// TableName overrides the table name used by GORM
func (AppSettings) TableName() string {
	return "app_settings"
}

// SettingsRepository reads and writes the singleton settings document.
type SettingsRepository interface {
	Get() (*AppSettings, error)
	Save(settings *AppSettings) error
}
