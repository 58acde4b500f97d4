package roomsession_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"revisionhub/backend/internal/roomsession"
)

// MockTransport records commands via testify and keeps a real handler
// registry so tests can push events through the transport path.
type MockTransport struct {
	mock.Mock

	mu        sync.Mutex
	connected bool
	nextToken int
	handlers  map[string]map[int]roomsession.EventHandler
}

func NewMockTransport() *MockTransport {
	return &MockTransport{handlers: make(map[string]map[int]roomsession.EventHandler)}
}

// Expect forwards to the embedded mock's On, which the Transport's own On
// method shadows.
func (m *MockTransport) Expect(method string, args ...interface{}) *mock.Call {
	return m.Mock.On(method, args...)
}

func (m *MockTransport) Init(ctx context.Context) error {
	args := m.Called(ctx)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.connected = true
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockTransport) Close() {
	m.Called()
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockTransport) On(event string, h roomsession.EventHandler) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextToken++
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]roomsession.EventHandler)
	}
	m.handlers[event][m.nextToken] = h
	return m.nextToken
}

func (m *MockTransport) Off(event string, token int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers[event], token)
}

func (m *MockTransport) JoinRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockTransport) LeaveRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockTransport) SendChatMessage(roomID string, msg roomsession.OutgoingMessage) {
	m.Called(roomID, msg)
}

func (m *MockTransport) UpdateStatus(roomID, userID, status string) {
	m.Called(roomID, userID, status)
}

func (m *MockTransport) VotePoll(roomID, pollID, optionID string) {
	m.Called(roomID, pollID, optionID)
}

// Emit delivers an event payload to every registered handler, the way the
// read pump would.
func (m *MockTransport) Emit(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", event, err)
	}
	m.mu.Lock()
	var hs []roomsession.EventHandler
	for _, h := range m.handlers[event] {
		hs = append(hs, h)
	}
	m.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

// HandlerCount reports how many handlers are registered for event.
func (m *MockTransport) HandlerCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[event])
}

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) Room(ctx context.Context, roomID string) (roomsession.RawRoom, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(roomsession.RawRoom), args.Error(1)
}

func (m *MockRoomService) Messages(ctx context.Context, roomID string, limit int) ([]roomsession.RawMessage, error) {
	args := m.Called(ctx, roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]roomsession.RawMessage), args.Error(1)
}

func (m *MockRoomService) Participants(ctx context.Context, roomID string) ([]roomsession.RawParticipant, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]roomsession.RawParticipant), args.Error(1)
}

type MockPollService struct {
	mock.Mock
}

func (m *MockPollService) RoomPolls(ctx context.Context, roomID string) ([]roomsession.RawPoll, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]roomsession.RawPoll), args.Error(1)
}

// loadedSession builds a connected session with room "room-1" current,
// one existing participant besides the local user, and no poll.
func loadedSession(t *testing.T, transport *MockTransport) *roomsession.Session {
	t.Helper()
	rooms := new(MockRoomService)
	rooms.On("Room", mock.Anything, "room-1").Return(roomsession.RawRoom{
		ID:            "room-1",
		Name:          "Algorithms Revision",
		MemberCount:   2,
		ActiveMembers: 2,
		Participants: []roomsession.RawParticipant{
			{UserID: "u1", Name: "Alice", Status: "active"},
			{UserID: "u2", Name: "Bob", Status: "active"},
		},
	}, nil)
	rooms.On("Messages", mock.Anything, "room-1", mock.Anything).Return([]roomsession.RawMessage{}, nil)
	polls := new(MockPollService)
	polls.On("RoomPolls", mock.Anything, "room-1").Return([]roomsession.RawPoll{}, nil)

	transport.Expect("Init", mock.Anything).Return(nil)
	transport.Expect("JoinRoom", "room-1").Return()

	session := roomsession.NewSession(transport, rooms, polls, roomsession.RawUser{UserID: "u1", Name: "Alice"})
	if err := session.LoadRoom(context.Background(), "room-1"); err != nil {
		t.Fatalf("loading room: %v", err)
	}
	return session
}
