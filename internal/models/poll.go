package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PollOption is a single votable choice within a poll.
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollOptions is stored as a JSON column; options keep their order.
type PollOptions []PollOption

// Value serializes the options for the database driver.
func (o PollOptions) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan deserializes the options from the database column.
func (o *PollOptions) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		*o = nil
		return nil
	default:
		return errors.New("poll options: unsupported column type")
	}
}

// Poll is a room-scoped vote. TotalVotes equals the sum of option votes in
// authoritative state; clients may transiently diverge between an optimistic
// local vote and the server echo.
type Poll struct {
	ID         string      `gorm:"primaryKey" json:"id"`
	RoomID     string      `gorm:"type:uuid;not null;index" json:"room_id"`
	Question   string      `gorm:"type:text;not null" json:"question"`
	Options    PollOptions `gorm:"type:jsonb" json:"options"`
	TotalVotes int         `json:"totalVotes"`
	IsActive   bool        `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID for the poll if unset.
func (p *Poll) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
