package config

import "time"

const (
	// Chat feed
	MessageGroupWindow  = 3 * time.Minute
	MessageHistoryLimit = 100
	MaxMessageLength    = 2000

	// Polls
	MaxPollOptions = 10
	MinPollOptions = 2

	// Rooms
	DefaultRoomListLimit = 50
	MaxRoomListLimit     = 200
)

// FallbackUserName is used when an inbound record carries no display name.
const FallbackUserName = "Anonymous User"
