package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message types carried over the wire and persisted.
const (
	MessageTypeText     = "text"
	MessageTypeSystem   = "system"
	MessageTypeAI       = "ai"
	MessageTypeQuestion = "question"
)

// RoomMessage is a persisted chat message in a revision room.
// Messages are immutable once created; replies reference their parent
// through ParentID.
type RoomMessage struct {
	// ID is the unique message identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// RoomID is the room the message was sent to.
	RoomID string `gorm:"type:uuid;not null;index:idx_room_created" json:"room_id"`
	// UserID is the sender's identifier.
	UserID string `gorm:"type:text;not null;index" json:"user_id"`
	// UserName is the sender's display name as seen at send time.
	UserName string `gorm:"type:text;not null" json:"user_name"`
	// Content is the message body.
	Content string `gorm:"type:text;not null" json:"content"`
	// Type is one of text, system, ai, question.
	Type string `gorm:"type:text;not null;default:text" json:"type"`
	// ParentID references the message this one replies to, if any.
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_room_created" json:"timestamp"`
}

// BeforeCreate generates a UUID for the message if unset.
func (m *RoomMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
