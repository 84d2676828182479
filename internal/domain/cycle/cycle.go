package cycle

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailyCycle is the single shared workflow document for one movie night,
// keyed by a rollover-adjusted YYYY-MM-DD date string. All participant
// submissions land in the three user-keyed maps; the phase machine reads
// them and moves current_status forward.
type DailyCycle struct {
	ID               string                                  `json:"id" gorm:"primaryKey"`
	CurrentStatus    Phase                                   `json:"current_status" gorm:"type:varchar(32);not null;default:'WAITING_FOR_DECISIONS'"`
	Decisions        datatypes.JSONType[map[string]bool]     `json:"decisions" gorm:"type:jsonb"`
	Nominations      datatypes.JSONType[map[string][]string] `json:"nominations" gorm:"type:jsonb"`
	Votes            datatypes.JSONType[map[string]Ballot]   `json:"votes" gorm:"type:jsonb"`
	WinningMovie     *datatypes.JSONType[WinningMovie]       `json:"winning_movie,omitempty" gorm:"type:jsonb"`
	ScheduleSettings datatypes.JSONType[ScheduleSettings]    `json:"schedule_settings" gorm:"type:jsonb"`
	RevealEnteredAt  *time.Time                              `json:"reveal_entered_at,omitempty"`
	CreatedAt        time.Time                               `json:"created_at" gorm:"autoCreateTime"`
}

// Ballot is one user's ranked vote. Picks may be empty when fewer than three
// movies were nominated.
type Ballot struct {
	TopPick    string `json:"top_pick"`
	SecondPick string `json:"second_pick"`
	ThirdPick  string `json:"third_pick"`
}

// Picks returns the non-empty picks in rank order.
func (b Ballot) Picks() []string {
	picks := make([]string, 0, 3)
	for _, p := range []string{b.TopPick, b.SecondPick, b.ThirdPick} {
		if p != "" {
			picks = append(picks, p)
		}
	}
	return picks
}

// Names reports whether the ballot names the given movie in any pick slot.
func (b Ballot) Names(movieID string) bool {
	return movieID != "" && (b.TopPick == movieID || b.SecondPick == movieID || b.ThirdPick == movieID)
}

// WinningMovie is the scored winner persisted on the cycle when it enters
// the reveal phase.
type WinningMovie struct {
	MovieID     string `json:"movie_id"`
	Title       string `json:"title"`
	PosterURL   string `json:"poster_url"`
	Runtime     int    `json:"runtime"`
	ReleaseYear int    `json:"release_year"`
	Score       int    `json:"score"`
}

// ScheduleSettings holds the per-cycle scheduling knobs.
type ScheduleSettings struct {
	FinishByTime string `json:"finish_by_time"` // HH:MM
}

// TableName overrides the table name used by GORM
func (DailyCycle) TableName() string {
	return "daily_cycles"
}

// NewDailyCycle creates a fresh cycle in the waiting-for-decisions phase.
func NewDailyCycle(id, finishByTime string) *DailyCycle {
	return &DailyCycle{
		ID:               id,
		CurrentStatus:    PhaseWaitingForDecisions,
		Decisions:        datatypes.NewJSONType(map[string]bool{}),
		Nominations:      datatypes.NewJSONType(map[string][]string{}),
		Votes:            datatypes.NewJSONType(map[string]Ballot{}),
		ScheduleSettings: datatypes.NewJSONType(ScheduleSettings{FinishByTime: finishByTime}),
		CreatedAt:        time.Now(),
	}
}

// BeforeCreate makes sure the JSON maps are never persisted as SQL NULL.
func (c *DailyCycle) BeforeCreate(tx *gorm.DB) error {
	if c.Decisions.Data() == nil {
		c.Decisions = datatypes.NewJSONType(map[string]bool{})
	}
	if c.Nominations.Data() == nil {
		c.Nominations = datatypes.NewJSONType(map[string][]string{})
	}
	if c.Votes.Data() == nil {
		c.Votes = datatypes.NewJSONType(map[string]Ballot{})
	}
	return nil
}

// DecisionsMap returns a copy of the decisions map, never nil.
func (c *DailyCycle) DecisionsMap() map[string]bool {
	out := make(map[string]bool, len(c.Decisions.Data()))
	for k, v := range c.Decisions.Data() {
		out[k] = v
	}
	return out
}

// NominationsMap returns a copy of the nominations map, never nil.
func (c *DailyCycle) NominationsMap() map[string][]string {
	out := make(map[string][]string, len(c.Nominations.Data()))
	for k, v := range c.Nominations.Data() {
		out[k] = slices.Clone(v)
	}
	return out
}

// VotesMap returns a copy of the votes map, never nil.
func (c *DailyCycle) VotesMap() map[string]Ballot {
	out := make(map[string]Ballot, len(c.Votes.Data()))
	for k, v := range c.Votes.Data() {
		out[k] = v
	}
	return out
}

// ReplaceDecisions swaps the decisions map wholesale.
func (c *DailyCycle) ReplaceDecisions(m map[string]bool) {
	c.Decisions = datatypes.NewJSONType(m)
}

// ReplaceNominations swaps the nominations map wholesale.
func (c *DailyCycle) ReplaceNominations(m map[string][]string) {
	c.Nominations = datatypes.NewJSONType(m)
}

// ReplaceVotes swaps the votes map wholesale.
func (c *DailyCycle) ReplaceVotes(m map[string]Ballot) {
	c.Votes = datatypes.NewJSONType(m)
}

// HasDecision reports whether the user already submitted a decision today.
func (c *DailyCycle) HasDecision(userID string) bool {
	_, ok := c.Decisions.Data()[userID]
	return ok
}

// YesVoters returns the ids of users who decided "yes", sorted for
// deterministic evaluation.
func (c *DailyCycle) YesVoters() []string {
	var ids []string
	for userID, in := range c.Decisions.Data() {
		if in {
			ids = append(ids, userID)
		}
	}
	sort.Strings(ids)
	return ids
}

// NominatedMovieIDs returns the distinct movie ids across every user's
// nomination list, sorted.
func (c *DailyCycle) NominatedMovieIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, list := range c.Nominations.Data() {
		for _, movieID := range list {
			if _, ok := seen[movieID]; ok {
				continue
			}
			seen[movieID] = struct{}{}
			ids = append(ids, movieID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Winner returns the persisted winner, or nil while none was revealed.
func (c *DailyCycle) Winner() *WinningMovie {
	if c.WinningMovie == nil {
		return nil
	}
	w := c.WinningMovie.Data()
	return &w
}

// SetWinner stores the winner value on the model. A nil winner clears it.
func (c *DailyCycle) SetWinner(w *WinningMovie) {
	if w == nil {
		c.WinningMovie = nil
		return
	}
	v := datatypes.NewJSONType(*w)
	c.WinningMovie = &v
}

// CanTransitionTo checks if the cycle can advance to the given phase under
// the normal forward-only order. Admin overrides go through ForcedTransition.
func (c *DailyCycle) CanTransitionTo(next Phase) bool {
	transitions := map[Phase][]Phase{
		PhaseWaitingForDecisions:  {PhaseGatheringNominations},
		PhaseGatheringNominations: {PhaseGatheringVotes},
		PhaseGatheringVotes:       {PhaseReveal},
		PhaseReveal:               {PhaseDashboardView},
		PhaseDashboardView:        {}, // NOTE: terminal for the day
	}

	allowed, exists := transitions[c.CurrentStatus]
	if !exists {
		return false
	}

	return slices.Contains(allowed, next)
}

// Phase is the current phase of a daily cycle.
type Phase byte

const (
	PhaseWaitingForDecisions Phase = iota
	PhaseGatheringNominations
	PhaseGatheringVotes
	PhaseReveal
	PhaseDashboardView
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForDecisions:
		return "WAITING_FOR_DECISIONS"
	case PhaseGatheringNominations:
		return "GATHERING_NOMINATIONS"
	case PhaseGatheringVotes:
		return "GATHERING_VOTES"
	case PhaseReveal:
		return "REVEAL"
	case PhaseDashboardView:
		return "DASHBOARD_VIEW"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (p *Phase) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	phase, valid := PhaseFromString(str)
	if !valid {
		return fmt.Errorf("invalid phase: %s", str)
	}
	*p = phase
	return nil
}

// PhaseFromString converts a string to a Phase
func PhaseFromString(s string) (Phase, bool) {
	switch s {
	case "WAITING_FOR_DECISIONS":
		return PhaseWaitingForDecisions, true
	case "GATHERING_NOMINATIONS":
		return PhaseGatheringNominations, true
	case "GATHERING_VOTES":
		return PhaseGatheringVotes, true
	case "REVEAL":
		return PhaseReveal, true
	case "DASHBOARD_VIEW":
		return PhaseDashboardView, true
	default:
		return PhaseWaitingForDecisions, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (p *Phase) Scan(value interface{}) error {
	if value == nil {
		*p = PhaseWaitingForDecisions
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Phase", value)
	}

	phase, valid := PhaseFromString(str)
	if !valid {
		return fmt.Errorf("invalid phase value: %s", str)
	}
	*p = phase
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (p Phase) Value() (driver.Value, error) {
	return p.String(), nil
}
