package roomsession

import (
	"context"
	"encoding/json"
)

// EventHandler receives the raw payload of a single socket event. Handlers
// for one transport are invoked sequentially, in delivery order.
type EventHandler func(data json.RawMessage)

// OutgoingMessage is a chat message composed locally, before the server has
// assigned it an id and timestamp.
type OutgoingMessage struct {
	UserID   string
	UserName string
	Content  string
	Type     string
	ParentID string
}

// Transport is the realtime connection the session drives. Implementations
// must make Init idempotent while connected, make Close safe to call more
// than once, and deliver events for a subscription only between its On and
// the matching Off.
type Transport interface {
	// Init establishes the connection. Calling Init on an already
	// connected transport is a no-op returning nil. A failed Init leaves
	// the transport disconnected; it does not retry.
	Init(ctx context.Context) error
	// Close tears down the connection and stops event delivery.
	Close()
	IsConnected() bool

	// On registers a handler for a named event and returns a token for
	// Off. Multiple handlers per event are allowed.
	On(event string, h EventHandler) int
	Off(event string, token int)

	JoinRoom(roomID string)
	LeaveRoom(roomID string)
	SendChatMessage(roomID string, msg OutgoingMessage)
	UpdateStatus(roomID, userID, status string)
	VotePoll(roomID, pollID, optionID string)
}
