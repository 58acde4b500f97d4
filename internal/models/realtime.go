package models

import "encoding/json"

// Server-to-client event names.
const (
	EventNewMessage        = "new_message"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventStatusUpdated     = "status_updated"
	EventPollUpdated       = "poll_updated"
	EventRoomUpdated       = "room_updated"
	EventSocketError       = "socket_error"
)

// Client-to-server command actions.
const (
	ActionJoinRoom     = "join_room"
	ActionLeaveRoom    = "leave_room"
	ActionSendMessage  = "send_message"
	ActionChangeStatus = "change_status"
	ActionChangeFocus  = "change_focus"
	ActionVotePoll     = "vote_poll"
)

// Envelope wraps every server-to-client websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Command wraps every client-to-server websocket frame.
type Command struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Socket payloads use the camelCase convention the web client speaks; the
// REST models use snake_case. The client core normalizes both at ingestion.

// MessagePayload is the body of a new_message event and a send_message command.
type MessagePayload struct {
	ID       string  `json:"id,omitempty"`
	RoomID   string  `json:"roomId"`
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Content  string  `json:"content"`
	Type     string  `json:"type"`
	ParentID *string `json:"parentId,omitempty"`
	// Timestamp is RFC 3339; filled in by the server.
	Timestamp string `json:"timestamp,omitempty"`
}

// ParticipantPayload identifies a joining user inside a JoinedPayload.
type ParticipantPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// JoinedPayload is the body of a participant_joined event.
type JoinedPayload struct {
	RoomID      string             `json:"roomId"`
	Participant ParticipantPayload `json:"participant"`
}

// LeftPayload is the body of a participant_left event.
type LeftPayload struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp,omitempty"`
}

// StatusPayload is the body of a status_updated event and a change_status command.
type StatusPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
	Status string `json:"status"`
}

// FocusPayload is the body of a change_focus command.
type FocusPayload struct {
	RoomID string `json:"roomId"`
	Focus  string `json:"focus"`
}

// VotePayload is the body of a vote_poll command.
type VotePayload struct {
	RoomID   string `json:"roomId"`
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
}

// RoomRefPayload carries just a room id, used by join_room and leave_room.
type RoomRefPayload struct {
	RoomID string `json:"roomId"`
}

// PollUpdatePayload is the body of a poll_updated event. Options and
// TotalVotes are authoritative replacements, not deltas.
type PollUpdatePayload struct {
	ID         string       `json:"id"`
	RoomID     string       `json:"roomId,omitempty"`
	Question   string       `json:"question,omitempty"`
	Options    []PollOption `json:"options,omitempty"`
	TotalVotes *int         `json:"totalVotes,omitempty"`
}

// RoomUpdatePayload is the body of a room_updated event: a shallow patch of
// display fields for the room identified by ID.
type RoomUpdatePayload struct {
	ID           string  `json:"id"`
	Name         *string `json:"name,omitempty"`
	Topic        *string `json:"topic,omitempty"`
	Description  *string `json:"description,omitempty"`
	CurrentFocus *string `json:"current_focus,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// ErrorPayload is the body of a socket_error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
