package models

import "time"

// Participant statuses. A participant who leaves is switched to away and
// never deleted, so attribution of their past messages stays resolvable.
const (
	StatusActive = "active"
	StatusIdle   = "idle"
	StatusAway   = "away"
)

// Participant is a user's membership record within a room.
// Primary key: (RoomID, UserID).
type Participant struct {
	RoomID   string `gorm:"primaryKey;type:uuid" json:"room_id"`
	UserID   string `gorm:"primaryKey;type:text" json:"user_id"`
	UserName string `gorm:"type:text;not null" json:"user_name"`
	// Status is one of active, idle, away.
	Status   string     `gorm:"type:text;default:active" json:"status"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// ValidStatus reports whether s is a known participant status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusIdle || s == StatusAway
}
