package roomsession

import (
	"time"

	"github.com/google/uuid"

	"revisionhub/backend/internal/config"
)

// The REST API serialises user fields as user_id / user_name while socket
// payloads use userId / userName. The raw record types below accept both
// spellings; the normalizer collapses them into the canonical types exactly
// once, at ingestion, so nothing downstream ever sees the skew.

// RawUser is a user reference in either naming convention.
type RawUser struct {
	UserID         string `json:"userId"`
	LegacyUserID   string `json:"user_id"`
	Name           string `json:"name"`
	UserName       string `json:"userName"`
	LegacyUserName string `json:"user_name"`
}

// RawMessage is a chat message as delivered by either the REST history
// endpoint or the new_message socket event.
type RawMessage struct {
	ID             string `json:"id"`
	RoomID         string `json:"roomId"`
	LegacyRoomID   string `json:"room_id"`
	UserID         string `json:"userId"`
	LegacyUserID   string `json:"user_id"`
	UserName       string `json:"userName"`
	LegacyUserName string `json:"user_name"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	ParentID       string `json:"parentId"`
	LegacyParentID string `json:"parent_id"`
	Timestamp      string `json:"timestamp"`
}

// RawParticipant is a membership record in either naming convention.
type RawParticipant struct {
	UserID         string  `json:"userId"`
	LegacyUserID   string  `json:"user_id"`
	Name           string  `json:"name"`
	UserName       string  `json:"userName"`
	LegacyUserName string  `json:"user_name"`
	Status         string  `json:"status"`
	JoinedAt       string  `json:"joined_at"`
	LeftAt         *string `json:"left_at"`
}

// NormalizeUser resolves a raw user reference into a session identity,
// preferring the camelCase fields and falling back to the snake_case ones.
func NormalizeUser(raw RawUser) Identity {
	id := firstNonEmpty(raw.UserID, raw.LegacyUserID)
	name := firstNonEmpty(raw.Name, raw.UserName, raw.LegacyUserName)
	if name == "" {
		name = config.FallbackUserName
	}
	return Identity{UserID: id, UserName: name}
}

// Normalizer converts raw records into canonical ones relative to the
// session identity. It is stateless and safe for concurrent use.
type Normalizer struct {
	Self Identity
}

// Message normalizes a raw chat message. Missing ids are generated, missing
// types default to text, and unparsable timestamps fall back to the local
// arrival time so a malformed record still sorts near its delivery point.
func (n Normalizer) Message(raw RawMessage) ChatMessage {
	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}
	userID := firstNonEmpty(raw.UserID, raw.LegacyUserID)
	userName := firstNonEmpty(raw.UserName, raw.LegacyUserName)
	if userName == "" {
		userName = config.FallbackUserName
	}
	msgType := raw.Type
	if msgType == "" {
		msgType = "text"
	}
	ts, err := time.Parse(time.RFC3339, raw.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	return ChatMessage{
		ID:            id,
		RoomID:        firstNonEmpty(raw.RoomID, raw.LegacyRoomID),
		UserID:        userID,
		UserName:      userName,
		Content:       raw.Content,
		Type:          msgType,
		ParentID:      firstNonEmpty(raw.ParentID, raw.LegacyParentID),
		Timestamp:     ts,
		IsCurrentUser: userID != "" && userID == n.Self.UserID,
	}
}

// Participant normalizes a raw membership record. Status defaults to
// active and an absent join time resolves to the local clock.
func (n Normalizer) Participant(raw RawParticipant) Participant {
	userID := firstNonEmpty(raw.UserID, raw.LegacyUserID)
	userName := firstNonEmpty(raw.Name, raw.UserName, raw.LegacyUserName)
	if userName == "" {
		userName = config.FallbackUserName
	}
	status := raw.Status
	if status == "" {
		status = "active"
	}
	joined, err := time.Parse(time.RFC3339, raw.JoinedAt)
	if err != nil {
		joined = time.Now()
	}
	var left *time.Time
	if raw.LeftAt != nil {
		if t, err := time.Parse(time.RFC3339, *raw.LeftAt); err == nil {
			left = &t
		}
	}
	return Participant{
		UserID:        userID,
		UserName:      userName,
		Status:        status,
		JoinedAt:      joined,
		LeftAt:        left,
		IsCurrentUser: userID != "" && userID == n.Self.UserID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
