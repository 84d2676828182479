package presence

import "time"

// ActiveUser is a lightweight last-seen record used to show who is
// currently around for tonight's cycle.
type ActiveUser struct {
	UserID      string    `json:"user_id" gorm:"primaryKey"`
	DisplayName string    `json:"display_name"`
	LastSeen    time.Time `json:"last_seen" gorm:"index"`
}

// TableName overrides the table name used by GORM
func (ActiveUser) TableName() string {
	return "active_users"
}

// ActiveWindow is how recently a user must have been seen to count as
// active.
const ActiveWindow = 5 * time.Minute

// Repository stores user heartbeats.
type Repository interface {
	// Heartbeat upserts the user's last-seen timestamp.
	Heartbeat(userID, displayName string, at time.Time) error

	// ActiveSince lists users seen at or after the given time.
	ActiveSince(t time.Time) ([]*ActiveUser, error)
}
