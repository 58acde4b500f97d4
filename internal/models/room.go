package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Room represents a collaborative revision session grouping participants,
// chat messages, and an optional poll. Display fields (name, topic, faculty)
// are opaque to the realtime core.
type Room struct {
	// ID is the unique identifier for the room (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// Name is the display title of the room.
	Name string `gorm:"type:text;not null" json:"name"`
	// Topic is the subject currently studied in the room.
	Topic string `gorm:"type:text" json:"topic"`
	// Description is a free-form summary shown on room cards.
	Description string `gorm:"type:text" json:"description"`
	// UnitCode is the course unit the room belongs to.
	UnitCode string `gorm:"type:text;index" json:"unit_code"`
	// FacultyCode identifies the faculty for filtering.
	FacultyCode string `gorm:"type:text;index" json:"faculty_code"`
	// Tags hold free-form searchable labels.
	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`
	// CurrentFocus is the question or task the room is working on right now.
	CurrentFocus string `gorm:"type:text" json:"current_focus"`
	// IsActive indicates whether the room is open for joining.
	IsActive bool `gorm:"default:true" json:"is_active"`
	// MemberCount is the total number of users who ever joined.
	MemberCount int `json:"memberCount"`
	// ActiveMembers is the number of currently present users.
	ActiveMembers int `json:"activeMembers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate is a GORM hook that generates a UUID for the room
// if the ID has not been set yet.
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
