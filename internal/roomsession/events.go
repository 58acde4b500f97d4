package roomsession

import "time"

// Event is a state transition input for the session. Events originate from
// the transport's read loop and are applied one at a time, in delivery
// order; an event addressing a room other than the current one is a no-op.
type Event interface {
	eventName() string
}

// MessageReceived carries a normalized incoming chat message.
type MessageReceived struct {
	Message ChatMessage
}

// ParticipantJoined announces a member entering a room.
type ParticipantJoined struct {
	RoomID      string
	Participant Participant
}

// ParticipantLeft announces a member leaving a room. The participant record
// is kept and marked away rather than removed.
type ParticipantLeft struct {
	RoomID string
	UserID string
	At     time.Time
}

// StatusUpdated changes a participant's presence status.
type StatusUpdated struct {
	RoomID string
	UserID string
	Status string
}

// PollUpdate is the authoritative poll state pushed by the server. Nil
// fields mean "unchanged"; a non-nil Options replaces the local option list
// wholesale, overwriting any optimistic local counts.
type PollUpdate struct {
	ID         string
	RoomID     string
	Question   string
	Options    []PollOption
	TotalVotes *int
}

// PollUpdated carries an authoritative poll update.
type PollUpdated struct {
	Update PollUpdate
}

// RoomUpdate is a shallow patch of room metadata. Nil fields are left
// untouched.
type RoomUpdate struct {
	ID           string
	Name         *string
	Topic        *string
	Description  *string
	CurrentFocus *string
	IsActive     *bool
}

// RoomUpdated carries a room metadata patch.
type RoomUpdated struct {
	Update RoomUpdate
}

// SocketError reports a transport-level failure. It only records the error
// for inspection; it does not tear down the session.
type SocketError struct {
	Message string
}

func (MessageReceived) eventName() string   { return "new_message" }
func (ParticipantJoined) eventName() string { return "participant_joined" }
func (ParticipantLeft) eventName() string   { return "participant_left" }
func (StatusUpdated) eventName() string     { return "status_updated" }
func (PollUpdated) eventName() string       { return "poll_updated" }
func (RoomUpdated) eventName() string       { return "room_updated" }
func (SocketError) eventName() string       { return "socket_error" }

// Raw socket payload shapes, decoded by the session's event handlers before
// normalization.

type rawJoinedEvent struct {
	RoomID       string         `json:"roomId"`
	LegacyRoomID string         `json:"room_id"`
	Participant  RawParticipant `json:"participant"`
}

type rawLeftEvent struct {
	RoomID       string `json:"roomId"`
	LegacyRoomID string `json:"room_id"`
	UserID       string `json:"userId"`
	LegacyUserID string `json:"user_id"`
	Timestamp    string `json:"timestamp"`
}

type rawStatusEvent struct {
	RoomID       string `json:"roomId"`
	LegacyRoomID string `json:"room_id"`
	UserID       string `json:"userId"`
	LegacyUserID string `json:"user_id"`
	Status       string `json:"status"`
}

type rawPollEvent struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"roomId"`
	LegacyRoomID string          `json:"room_id"`
	Question     string          `json:"question"`
	Options      []RawPollOption `json:"options"`
	TotalVotes   *int            `json:"totalVotes"`
}

type rawRoomEvent struct {
	ID                 string  `json:"id"`
	RoomID             string  `json:"roomId"`
	Name               *string `json:"name"`
	Topic              *string `json:"topic"`
	Description        *string `json:"description"`
	CurrentFocus       *string `json:"currentFocus"`
	LegacyCurrentFocus *string `json:"current_focus"`
	IsActive           *bool   `json:"isActive"`
	LegacyIsActive     *bool   `json:"is_active"`
}

type rawErrorEvent struct {
	Message string `json:"message"`
}
