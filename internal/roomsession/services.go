package roomsession

import "context"

// RawRoom is room metadata as returned by the REST API. The participant
// list may be absent depending on the endpoint.
type RawRoom struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Topic         string           `json:"topic"`
	Description   string           `json:"description"`
	UnitCode      string           `json:"unit_code"`
	FacultyCode   string           `json:"faculty_code"`
	Tags          []string         `json:"tags"`
	CurrentFocus  string           `json:"current_focus"`
	IsActive      bool             `json:"is_active"`
	MemberCount   int              `json:"memberCount"`
	ActiveMembers int              `json:"activeMembers"`
	Participants  []RawParticipant `json:"participants"`
}

// RawPollOption is one poll choice as serialized on the wire.
type RawPollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// RawPoll is a poll as returned by the REST API.
type RawPoll struct {
	ID         string          `json:"id"`
	RoomID     string          `json:"room_id"`
	Question   string          `json:"question"`
	Options    []RawPollOption `json:"options"`
	TotalVotes int             `json:"totalVotes"`
	IsActive   bool            `json:"is_active"`
}

// RoomService fetches room data over REST. Records are returned raw; the
// session normalizes them at ingestion.
type RoomService interface {
	Room(ctx context.Context, roomID string) (RawRoom, error)
	Messages(ctx context.Context, roomID string, limit int) ([]RawMessage, error)
	Participants(ctx context.Context, roomID string) ([]RawParticipant, error)
}

// PollService fetches the polls of a room over REST.
type PollService interface {
	RoomPolls(ctx context.Context, roomID string) ([]RawPoll, error)
}
