// Package roomsession implements the client-side synchronization core for
// revision rooms: a session holds at most one current room, applies the
// transport's event stream to it as serialized state transitions, and
// derives read-only views (message feed, presence, poll) from the result.
package roomsession

import "time"

// ChatMessage is the canonical client-side message record. It is produced
// by the normalizer at ingestion and immutable afterwards.
type ChatMessage struct {
	ID       string
	RoomID   string
	UserID   string
	UserName string
	Content  string
	Type     string
	// ParentID references the replied-to message, "" when not a reply.
	ParentID  string
	Timestamp time.Time
	// IsCurrentUser is computed once, against the session identity.
	IsCurrentUser bool
}

// Participant is the canonical client-side membership record. Participants
// are never removed from a room; leaving flips the status to away so past
// message attribution stays resolvable.
type Participant struct {
	UserID        string
	UserName      string
	Status        string
	JoinedAt      time.Time
	LeftAt        *time.Time
	IsCurrentUser bool
}

// PollOption is one votable choice of a poll.
type PollOption struct {
	ID    string
	Text  string
	Votes int
}

// Poll is the client-side view of the room's active poll. Between a local
// optimistic vote and the authoritative echo, TotalVotes may transiently
// disagree with the sum of option votes.
type Poll struct {
	ID         string
	Question   string
	Options    []PollOption
	TotalVotes int
}

// Identity is the canonical local-session identity.
type Identity struct {
	UserID   string
	UserName string
}
