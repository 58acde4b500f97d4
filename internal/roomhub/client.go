package roomhub

import "revisionhub/backend/internal/models"

// Client is the interface for one active connection to the hub. It abstracts
// the underlying communication mechanism so the hub can manage connection
// kinds uniformly.
type Client interface {
	// GetUserID returns the unique identifier for the connected user.
	GetUserID() string
	// GetUserName returns the display name the user connected with.
	GetUserName() string
	// GetRoomID returns the id of the room the client is currently in,
	// or "" when not in a room.
	GetRoomID() string
	// SetRoomID assigns the client to a room. Called by the hub on
	// join_room and cleared on leave_room.
	SetRoomID(string)

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and channels.
	Close()
}
