package handler_test

import (
	"revisionhub/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify/mock implementation of the storage.Storage
// interface for handler tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveRoom(room *models.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.Room, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) ListRooms(limit int) ([]models.Room, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockStorage) AdjustRoomMembers(roomID string, memberDelta, activeDelta int) error {
	args := m.Called(roomID, memberDelta, activeDelta)
	return args.Error(0)
}

func (m *MockStorage) SetRoomFocus(roomID, focus string) error {
	args := m.Called(roomID, focus)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(msg *models.RoomMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetRoomMessages(roomID string, limit int) ([]models.RoomMessage, error) {
	args := m.Called(roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoomMessage), args.Error(1)
}

func (m *MockStorage) JoinParticipant(p *models.Participant) (bool, error) {
	args := m.Called(p)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) MarkParticipantLeft(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockStorage) UpdateParticipantStatus(roomID, userID, status string) error {
	args := m.Called(roomID, userID, status)
	return args.Error(0)
}

func (m *MockStorage) GetRoomParticipants(roomID string) ([]models.Participant, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockStorage) SavePoll(poll *models.Poll) error {
	args := m.Called(poll)
	return args.Error(0)
}

func (m *MockStorage) GetRoomPolls(roomID string) ([]models.Poll, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Poll), args.Error(1)
}

func (m *MockStorage) ApplyVote(pollID, optionID string) (*models.Poll, error) {
	args := m.Called(pollID, optionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockStorage) ClosePoll(pollID string) (*models.Poll, error) {
	args := m.Called(pollID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockStorage) PublishRoomEvent(roomID string, env models.Envelope) error {
	args := m.Called(roomID, env)
	return args.Error(0)
}

func (m *MockStorage) SubscribeRoomEvents() *redis.PubSub {
	args := m.Called()
	return args.Get(0).(*redis.PubSub)
}
