package roomhub

import (
	"encoding/json"
	"log"
	"time"

	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/storage"
)

// Command is one decoded client-to-server frame, tagged with the client that
// sent it.
type Command struct {
	Client Client
	Action string
	Data   json.RawMessage
}

// RoomEvent is one event to deliver to the local members of a room. It is
// what the Redis listener feeds back into the hub loop.
type RoomEvent struct {
	RoomID   string
	Envelope models.Envelope
}

// Hub owns the connection registry and per-room membership for this
// instance. All state is mutated from the single Run goroutine; other
// goroutines talk to the hub through its channels.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	CommandCh    chan Command
	RoomEventCh  chan RoomEvent

	Storage storage.Storage

	// rooms maps roomID -> userID -> client for local delivery.
	rooms map[string]map[string]Client
}

// NewHub builds a hub around the given storage.
func NewHub(s storage.Storage) *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		CommandCh:    make(chan Command, 64),
		RoomEventCh:  make(chan RoomEvent, 64),
		Storage:      s,
		rooms:        make(map[string]map[string]Client),
	}
}

// Run is the hub's main loop. Registration, commands, and cross-instance
// events are all serialized here.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.GetUserID()] = client

		case client := <-h.UnregisterCh:
			h.handleDisconnect(client)

		case cmd := <-h.CommandCh:
			h.handleCommand(cmd)

		case ev := <-h.RoomEventCh:
			h.deliverToRoom(ev.RoomID, ev.Envelope)
		}
	}
}

func (h *Hub) handleCommand(cmd Command) {
	switch cmd.Action {
	case models.ActionJoinRoom:
		h.handleJoin(cmd)
	case models.ActionLeaveRoom:
		h.handleLeave(cmd)
	case models.ActionSendMessage:
		h.handleSendMessage(cmd)
	case models.ActionChangeStatus:
		h.handleChangeStatus(cmd)
	case models.ActionChangeFocus:
		h.handleChangeFocus(cmd)
	case models.ActionVotePoll:
		h.handleVote(cmd)
	default:
		h.sendError(cmd.Client, "unknown action: "+cmd.Action)
	}
}

func (h *Hub) handleJoin(cmd Command) {
	var ref models.RoomRefPayload
	if err := json.Unmarshal(cmd.Data, &ref); err != nil || ref.RoomID == "" {
		h.sendError(cmd.Client, "join_room requires a roomId")
		return
	}

	// A client is in at most one room; switching rooms leaves the old one.
	if prev := cmd.Client.GetRoomID(); prev != "" && prev != ref.RoomID {
		h.leaveRoom(cmd.Client, prev)
	}

	created, err := h.Storage.JoinParticipant(&models.Participant{
		RoomID:   ref.RoomID,
		UserID:   cmd.Client.GetUserID(),
		UserName: cmd.Client.GetUserName(),
		JoinedAt: time.Now(),
	})
	if err != nil {
		log.Printf("ERROR: join_room persistence failed for %s: %v", ref.RoomID, err)
		h.sendError(cmd.Client, "failed to join room")
		return
	}

	memberDelta := 0
	if created {
		memberDelta = 1
	}
	if err := h.Storage.AdjustRoomMembers(ref.RoomID, memberDelta, 1); err != nil {
		log.Printf("WARNING: member counters not updated for %s: %v", ref.RoomID, err)
	}

	members, ok := h.rooms[ref.RoomID]
	if !ok {
		members = make(map[string]Client)
		h.rooms[ref.RoomID] = members
	}
	members[cmd.Client.GetUserID()] = cmd.Client
	cmd.Client.SetRoomID(ref.RoomID)

	h.publish(ref.RoomID, models.EventParticipantJoined, models.JoinedPayload{
		RoomID: ref.RoomID,
		Participant: models.ParticipantPayload{
			UserID: cmd.Client.GetUserID(),
			Name:   cmd.Client.GetUserName(),
		},
	})
}

func (h *Hub) handleLeave(cmd Command) {
	var ref models.RoomRefPayload
	if err := json.Unmarshal(cmd.Data, &ref); err != nil || ref.RoomID == "" {
		h.sendError(cmd.Client, "leave_room requires a roomId")
		return
	}
	h.leaveRoom(cmd.Client, ref.RoomID)
}

// leaveRoom removes the client from local membership, persists the
// departure, and broadcasts participant_left.
func (h *Hub) leaveRoom(client Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, client.GetUserID())
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if client.GetRoomID() == roomID {
		client.SetRoomID("")
	}

	if err := h.Storage.MarkParticipantLeft(roomID, client.GetUserID()); err != nil {
		log.Printf("WARNING: participant_left not persisted for %s: %v", roomID, err)
	}
	if err := h.Storage.AdjustRoomMembers(roomID, 0, -1); err != nil {
		log.Printf("WARNING: member counters not updated for %s: %v", roomID, err)
	}

	h.publish(roomID, models.EventParticipantLeft, models.LeftPayload{
		RoomID:    roomID,
		UserID:    client.GetUserID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) handleSendMessage(cmd Command) {
	var payload models.MessagePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		h.sendError(cmd.Client, "malformed send_message payload")
		return
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = cmd.Client.GetRoomID()
	}
	if roomID == "" || payload.Content == "" {
		h.sendError(cmd.Client, "send_message requires a room and content")
		return
	}
	if payload.Type == "" {
		payload.Type = models.MessageTypeText
	}

	// The sender's identity comes from the connection, not the payload.
	msg := &models.RoomMessage{
		RoomID:   roomID,
		UserID:   cmd.Client.GetUserID(),
		UserName: cmd.Client.GetUserName(),
		Content:  payload.Content,
		Type:     payload.Type,
		ParentID: payload.ParentID,
	}
	if err := h.Storage.SaveMessage(msg); err != nil {
		h.sendError(cmd.Client, "failed to send message")
		return
	}

	h.publish(roomID, models.EventNewMessage, models.MessagePayload{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		Content:   msg.Content,
		Type:      msg.Type,
		ParentID:  msg.ParentID,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Hub) handleChangeStatus(cmd Command) {
	var payload models.StatusPayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		h.sendError(cmd.Client, "malformed change_status payload")
		return
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = cmd.Client.GetRoomID()
	}
	if roomID == "" || !models.ValidStatus(payload.Status) {
		h.sendError(cmd.Client, "change_status requires a room and a valid status")
		return
	}

	userID := cmd.Client.GetUserID()
	if err := h.Storage.UpdateParticipantStatus(roomID, userID, payload.Status); err != nil {
		log.Printf("WARNING: status not persisted for %s in %s: %v", userID, roomID, err)
	}

	h.publish(roomID, models.EventStatusUpdated, models.StatusPayload{
		RoomID: roomID,
		UserID: userID,
		Status: payload.Status,
	})
}

func (h *Hub) handleChangeFocus(cmd Command) {
	var payload models.FocusPayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		h.sendError(cmd.Client, "malformed change_focus payload")
		return
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = cmd.Client.GetRoomID()
	}
	if roomID == "" {
		h.sendError(cmd.Client, "change_focus requires a room")
		return
	}

	if err := h.Storage.SetRoomFocus(roomID, payload.Focus); err != nil {
		log.Printf("ERROR: focus not persisted for room %s: %v", roomID, err)
		h.sendError(cmd.Client, "failed to change focus")
		return
	}

	focus := payload.Focus
	h.publish(roomID, models.EventRoomUpdated, models.RoomUpdatePayload{
		ID:           roomID,
		CurrentFocus: &focus,
	})
}

func (h *Hub) handleVote(cmd Command) {
	var payload models.VotePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil || payload.PollID == "" || payload.OptionID == "" {
		h.sendError(cmd.Client, "vote_poll requires pollId and optionId")
		return
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = cmd.Client.GetRoomID()
	}

	poll, err := h.Storage.ApplyVote(payload.PollID, payload.OptionID)
	if err != nil {
		log.Printf("ERROR: vote failed for poll %s: %v", payload.PollID, err)
		h.sendError(cmd.Client, "failed to record vote")
		return
	}

	total := poll.TotalVotes
	h.publish(roomID, models.EventPollUpdated, models.PollUpdatePayload{
		ID:         poll.ID,
		RoomID:     poll.RoomID,
		Question:   poll.Question,
		Options:    poll.Options,
		TotalVotes: &total,
	})
}

// handleDisconnect handles an abrupt connection drop: the user leaves
// whatever room they were in, then the client is forgotten.
func (h *Hub) handleDisconnect(client Client) {
	if roomID := client.GetRoomID(); roomID != "" {
		h.leaveRoom(client, roomID)
	}
	if current, ok := h.Clients[client.GetUserID()]; ok && current == client {
		delete(h.Clients, client.GetUserID())
		client.Close()
	}
}

// publish makes an event durable in flight: it goes through Redis so every
// instance, including this one, delivers it to its local room members.
func (h *Hub) publish(roomID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to encode %s event: %v", event, err)
		return
	}
	env := models.Envelope{Event: event, Data: data}
	if err := h.Storage.PublishRoomEvent(roomID, env); err != nil {
		log.Printf("ERROR: failed to publish %s for room %s: %v", event, roomID, err)
		// Degrade to local delivery so single-instance setups keep working.
		h.deliverToRoom(roomID, env)
	}
}

// deliverToRoom pushes an envelope to every locally connected member.
func (h *Hub) deliverToRoom(roomID string, env models.Envelope) {
	for userID, client := range h.rooms[roomID] {
		select {
		case client.GetSendChannel() <- env:
		default:
			// Slow consumer: drop the connection rather than block the loop.
			log.Printf("WARNING: dropping slow client %s in room %s", userID, roomID)
			h.handleDisconnect(client)
		}
	}
}

func (h *Hub) sendError(client Client, message string) {
	data, err := json.Marshal(models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case client.GetSendChannel() <- models.Envelope{Event: models.EventSocketError, Data: data}:
	default:
	}
}
