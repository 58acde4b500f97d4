package roomhub_test

import (
	"encoding/json"
	"testing"
	"time"

	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/roomhub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}

func TestHub_RegisterUnregister(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	clientA := newMockClient("user_A", "Alice")

	go hub.Run()

	hub.RegisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.Contains(t, hub.Clients, "user_A")

	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.NotContains(t, hub.Clients, "user_A")
	assert.True(t, clientA.closed)
}

func TestHub_JoinRoom(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("JoinParticipant", mock.AnythingOfType("*models.Participant")).Return(true, nil)
	storageMock.On("AdjustRoomMembers", "room1", 1, 1).Return(nil)
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).Return(nil)

	client := newMockClient("user_A", "Alice")
	hub.Clients["user_A"] = client

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionJoinRoom,
		Data:   mustJSON(t, models.RoomRefPayload{RoomID: "room1"}),
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, "room1", client.GetRoomID())
	storageMock.AssertCalled(t, "JoinParticipant", mock.AnythingOfType("*models.Participant"))
	storageMock.AssertCalled(t, "PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope"))
}

func TestHub_JoinSwitchesRooms(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("JoinParticipant", mock.AnythingOfType("*models.Participant")).Return(true, nil)
	storageMock.On("AdjustRoomMembers", mock.AnythingOfType("string"), mock.AnythingOfType("int"), mock.AnythingOfType("int")).Return(nil)
	storageMock.On("MarkParticipantLeft", "room1", "user_A").Return(nil)
	storageMock.On("PublishRoomEvent", mock.AnythingOfType("string"), mock.AnythingOfType("models.Envelope")).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")
	hub.Clients["user_A"] = client

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionJoinRoom,
		Data:   mustJSON(t, models.RoomRefPayload{RoomID: "room2"}),
	}
	time.Sleep(100 * time.Millisecond)

	// The old membership is closed exactly once before the new one opens.
	storageMock.AssertNumberOfCalls(t, "MarkParticipantLeft", 1)
	assert.Equal(t, "room2", client.GetRoomID())
}

func TestHub_SendMessage(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("SaveMessage", mock.AnythingOfType("*models.RoomMessage")).Return(nil)
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionSendMessage,
		Data:   mustJSON(t, models.MessagePayload{RoomID: "room1", Content: "hello"}),
	}
	time.Sleep(100 * time.Millisecond)

	storageMock.AssertCalled(t, "SaveMessage", mock.AnythingOfType("*models.RoomMessage"))
	storageMock.AssertCalled(t, "PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope"))
}

func TestHub_SendMessage_IdentityFromConnection(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	var saved *models.RoomMessage
	storageMock.On("SaveMessage", mock.AnythingOfType("*models.RoomMessage")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).(*models.RoomMessage)
		}).Return(nil)
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")

	go hub.Run()

	// The payload claims another identity; the connection wins.
	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionSendMessage,
		Data:   mustJSON(t, models.MessagePayload{RoomID: "room1", UserID: "impostor", Content: "hi"}),
	}
	time.Sleep(100 * time.Millisecond)

	if assert.NotNil(t, saved) {
		assert.Equal(t, "user_A", saved.UserID)
		assert.Equal(t, "Alice", saved.UserName)
	}
}

func TestHub_VotePoll_BroadcastsAuthoritativeState(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	authoritative := &models.Poll{
		ID:     "poll1",
		RoomID: "room1",
		Options: models.PollOptions{
			{ID: "o1", Text: "A", Votes: 5},
			{ID: "o2", Text: "B", Votes: 7},
		},
		TotalVotes: 12,
	}
	storageMock.On("ApplyVote", "poll1", "o1").Return(authoritative, nil)

	var published models.Envelope
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(models.Envelope)
		}).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionVotePoll,
		Data:   mustJSON(t, models.VotePayload{RoomID: "room1", PollID: "poll1", OptionID: "o1"}),
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, models.EventPollUpdated, published.Event)

	var update models.PollUpdatePayload
	assert.NoError(t, json.Unmarshal(published.Data, &update))
	assert.Equal(t, "poll1", update.ID)
	if assert.NotNil(t, update.TotalVotes) {
		assert.Equal(t, 12, *update.TotalVotes)
	}
}

func TestHub_ChangeFocus_BroadcastsRoomUpdate(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("SetRoomFocus", "room1", "binary trees").Return(nil)

	var published models.Envelope
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(models.Envelope)
		}).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionChangeFocus,
		Data:   mustJSON(t, models.FocusPayload{RoomID: "room1", Focus: "binary trees"}),
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, models.EventRoomUpdated, published.Event)

	var update models.RoomUpdatePayload
	assert.NoError(t, json.Unmarshal(published.Data, &update))
	assert.Equal(t, "room1", update.ID)
	if assert.NotNil(t, update.CurrentFocus) {
		assert.Equal(t, "binary trees", *update.CurrentFocus)
	}
}

func TestHub_ChangeFocus_PersistenceFailureSendsError(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("SetRoomFocus", "room1", "graphs").Return(assert.AnError)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: client,
		Action: models.ActionChangeFocus,
		Data:   mustJSON(t, models.FocusPayload{RoomID: "room1", Focus: "graphs"}),
	}
	time.Sleep(100 * time.Millisecond)

	env, ok := client.Recv()
	assert.True(t, ok)
	assert.Equal(t, models.EventSocketError, env.Event)
	storageMock.AssertNotCalled(t, "PublishRoomEvent", "room1", mock.Anything)
}

func TestHub_RoomEventDelivery(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("JoinParticipant", mock.AnythingOfType("*models.Participant")).Return(true, nil)
	storageMock.On("AdjustRoomMembers", "room1", 1, 1).Return(nil)
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).Return(nil)

	member := newMockClient("user_B", "Bob")
	hub.Clients["user_B"] = member

	go hub.Run()

	hub.CommandCh <- roomhub.Command{
		Client: member,
		Action: models.ActionJoinRoom,
		Data:   mustJSON(t, models.RoomRefPayload{RoomID: "room1"}),
	}
	time.Sleep(100 * time.Millisecond)
	member.Recv() // discard the join broadcast fallback, if any

	env := models.Envelope{Event: models.EventNewMessage, Data: mustJSON(t, models.MessagePayload{RoomID: "room1", Content: "hello"})}
	hub.RoomEventCh <- roomhub.RoomEvent{RoomID: "room1", Envelope: env}
	time.Sleep(100 * time.Millisecond)

	received, ok := member.Recv()
	if assert.True(t, ok, "member did not receive the room event") {
		assert.Equal(t, models.EventNewMessage, received.Event)
	}
}

func TestHub_UnknownActionSendsError(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	client := newMockClient("user_A", "Alice")

	go hub.Run()

	hub.CommandCh <- roomhub.Command{Client: client, Action: "dance", Data: nil}
	time.Sleep(100 * time.Millisecond)

	env, ok := client.Recv()
	if assert.True(t, ok, "client should receive an error envelope") {
		assert.Equal(t, models.EventSocketError, env.Event)
	}
}

func TestHub_DisconnectLeavesRoom(t *testing.T) {
	storageMock := new(MockStorage)
	hub := createTestHub(storageMock)

	storageMock.On("MarkParticipantLeft", "room1", "user_A").Return(nil)
	storageMock.On("AdjustRoomMembers", "room1", 0, -1).Return(nil)
	storageMock.On("PublishRoomEvent", "room1", mock.AnythingOfType("models.Envelope")).Return(nil)

	client := newMockClient("user_A", "Alice")
	client.SetRoomID("room1")
	hub.Clients["user_A"] = client

	go hub.Run()

	hub.UnregisterCh <- client
	time.Sleep(100 * time.Millisecond)

	storageMock.AssertCalled(t, "MarkParticipantLeft", "room1", "user_A")
	assert.NotContains(t, hub.Clients, "user_A")
}
