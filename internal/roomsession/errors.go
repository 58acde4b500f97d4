package roomsession

import "errors"

var (
	ErrNotConnected  = errors.New("session is not connected")
	ErrNoRoom        = errors.New("no room is loaded")
	ErrNoPoll        = errors.New("room has no active poll")
	ErrUnknownOption = errors.New("poll option does not exist")
	ErrInvalidStatus = errors.New("invalid presence status")
	ErrEmptyMessage  = errors.New("message content is empty")
	ErrTooLong       = errors.New("message content exceeds the length limit")
)
