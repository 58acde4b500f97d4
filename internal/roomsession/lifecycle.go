package roomsession

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"revisionhub/backend/internal/config"
)

// Init connects the transport and subscribes the session to its events.
// Calling Init while connected is a no-op. A failed connect leaves the
// session disconnected; no retry is attempted.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.transport.IsConnected() {
		s.mu.Unlock()
		return nil
	}
	s.state = Connecting
	s.mu.Unlock()

	if err := s.transport.Init(ctx); err != nil {
		s.mu.Lock()
		s.state = Disconnected
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	s.subscribeOnce.Do(s.subscribe)

	s.mu.Lock()
	if s.room != nil {
		s.state = ConnectedInRoom
	} else {
		s.state = ConnectedNoRoom
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) subscribe() {
	s.on("new_message", func(data json.RawMessage) {
		var raw RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed new_message payload: %v", err)
			return
		}
		s.Dispatch(MessageReceived{Message: s.norm.Message(raw)})
	})
	s.on("participant_joined", func(data json.RawMessage) {
		var raw rawJoinedEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed participant_joined payload: %v", err)
			return
		}
		s.Dispatch(ParticipantJoined{
			RoomID:      firstNonEmpty(raw.RoomID, raw.LegacyRoomID),
			Participant: s.norm.Participant(raw.Participant),
		})
	})
	s.on("participant_left", func(data json.RawMessage) {
		var raw rawLeftEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed participant_left payload: %v", err)
			return
		}
		at, err := time.Parse(time.RFC3339, raw.Timestamp)
		if err != nil {
			at = time.Now()
		}
		s.Dispatch(ParticipantLeft{
			RoomID: firstNonEmpty(raw.RoomID, raw.LegacyRoomID),
			UserID: firstNonEmpty(raw.UserID, raw.LegacyUserID),
			At:     at,
		})
	})
	s.on("status_updated", func(data json.RawMessage) {
		var raw rawStatusEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed status_updated payload: %v", err)
			return
		}
		s.Dispatch(StatusUpdated{
			RoomID: firstNonEmpty(raw.RoomID, raw.LegacyRoomID),
			UserID: firstNonEmpty(raw.UserID, raw.LegacyUserID),
			Status: raw.Status,
		})
	})
	s.on("poll_updated", func(data json.RawMessage) {
		var raw rawPollEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed poll_updated payload: %v", err)
			return
		}
		update := PollUpdate{
			ID:         raw.ID,
			RoomID:     firstNonEmpty(raw.RoomID, raw.LegacyRoomID),
			Question:   raw.Question,
			TotalVotes: raw.TotalVotes,
		}
		if raw.Options != nil {
			update.Options = make([]PollOption, 0, len(raw.Options))
			for _, o := range raw.Options {
				update.Options = append(update.Options, PollOption(o))
			}
		}
		s.Dispatch(PollUpdated{Update: update})
	})
	s.on("room_updated", func(data json.RawMessage) {
		var raw rawRoomEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("WARNING: dropping malformed room_updated payload: %v", err)
			return
		}
		focus := raw.CurrentFocus
		if focus == nil {
			focus = raw.LegacyCurrentFocus
		}
		active := raw.IsActive
		if active == nil {
			active = raw.LegacyIsActive
		}
		s.Dispatch(RoomUpdated{Update: RoomUpdate{
			ID:           firstNonEmpty(raw.ID, raw.RoomID),
			Name:         raw.Name,
			Topic:        raw.Topic,
			Description:  raw.Description,
			CurrentFocus: focus,
			IsActive:     active,
		}})
	})
	s.on("socket_error", func(data json.RawMessage) {
		var raw rawErrorEvent
		if err := json.Unmarshal(data, &raw); err != nil || raw.Message == "" {
			raw.Message = "socket error"
		}
		s.Dispatch(SocketError{Message: raw.Message})
	})
}

func (s *Session) on(event string, h EventHandler) {
	token := s.transport.On(event, h)
	s.mu.Lock()
	s.subs = append(s.subs, subscription{event: event, token: token})
	s.mu.Unlock()
}

// LoadRoom makes the given room current. It connects if needed, fetches
// room data over REST, announces the membership change over the transport
// and installs the new state. Switching rooms emits exactly one leave for
// the previous room and one join for the new one, even when called
// repeatedly in quick succession. A metadata fetch failure aborts the
// switch; failures loading messages, participants or polls degrade to an
// empty view of the failed part.
func (s *Session) LoadRoom(ctx context.Context, roomID string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := s.Init(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	already := s.joinedRoomID == roomID && s.room != nil && s.room.ID == roomID
	s.mu.RUnlock()
	if already {
		return nil
	}

	rawRoom, err := s.rooms.Room(ctx, roomID)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	var loadErr string
	rawMessages, err := s.rooms.Messages(ctx, roomID, config.MessageHistoryLimit)
	if err != nil {
		log.Printf("WARNING: loading messages for room %s: %v", roomID, err)
		loadErr = err.Error()
		rawMessages = nil
	}
	rawParticipants := rawRoom.Participants
	if rawParticipants == nil {
		rawParticipants, err = s.rooms.Participants(ctx, roomID)
		if err != nil {
			log.Printf("WARNING: loading participants for room %s: %v", roomID, err)
			loadErr = err.Error()
			rawParticipants = nil
		}
	}
	var rawPolls []RawPoll
	if s.polls != nil {
		rawPolls, err = s.polls.RoomPolls(ctx, roomID)
		if err != nil {
			log.Printf("WARNING: loading polls for room %s: %v", roomID, err)
			loadErr = err.Error()
			rawPolls = nil
		}
	}

	room := &RoomState{
		ID:            rawRoom.ID,
		Name:          rawRoom.Name,
		Topic:         rawRoom.Topic,
		Description:   rawRoom.Description,
		UnitCode:      rawRoom.UnitCode,
		FacultyCode:   rawRoom.FacultyCode,
		Tags:          rawRoom.Tags,
		CurrentFocus:  rawRoom.CurrentFocus,
		IsActive:      rawRoom.IsActive,
		MemberCount:   rawRoom.MemberCount,
		ActiveMembers: rawRoom.ActiveMembers,
		seen:          make(map[string]struct{}),
	}
	if room.ID == "" {
		room.ID = roomID
	}
	for _, rm := range rawMessages {
		msg := s.norm.Message(rm)
		if _, dup := room.seen[msg.ID]; dup {
			continue
		}
		room.seen[msg.ID] = struct{}{}
		room.Messages = append(room.Messages, msg)
	}
	for _, rp := range rawParticipants {
		room.Participants = append(room.Participants, s.norm.Participant(rp))
	}

	s.mu.Lock()
	if s.joinedRoomID != "" && s.joinedRoomID != roomID {
		s.transport.LeaveRoom(s.joinedRoomID)
	}
	join := s.joinedRoomID != roomID
	s.room = room
	s.adoptPolls(rawPolls)
	s.joinedRoomID = roomID
	s.state = ConnectedInRoom
	s.lastErr = loadErr
	if join {
		s.transport.JoinRoom(roomID)
	}
	s.mu.Unlock()
	return nil
}

// LeaveRoom announces departure from the current room and clears the room
// state. The session stays connected. Calling it with no room loaded is a
// no-op.
func (s *Session) LeaveRoom() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joinedRoomID != "" {
		s.transport.LeaveRoom(s.joinedRoomID)
	}
	s.room = nil
	s.poll = nil
	s.joinedRoomID = ""
	if s.state == ConnectedInRoom {
		s.state = ConnectedNoRoom
	}
}

// SendMessage sends a text message to the current room. The message is not
// appended locally; it enters the feed when the server echoes it back as a
// new_message event.
func (s *Session) SendMessage(content string) error {
	return s.send(content, "text", "")
}

// SendReply sends a message replying to parentID.
func (s *Session) SendReply(content, parentID string) error {
	return s.send(content, "text", parentID)
}

// SendQuestion sends a message flagged as a question.
func (s *Session) SendQuestion(content string) error {
	return s.send(content, "question", "")
}

func (s *Session) send(content, msgType, parentID string) error {
	if content == "" {
		return ErrEmptyMessage
	}
	if len(content) > config.MaxMessageLength {
		return ErrTooLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transport.IsConnected() {
		return ErrNotConnected
	}
	if s.room == nil {
		return ErrNoRoom
	}
	s.transport.SendChatMessage(s.room.ID, OutgoingMessage{
		UserID:   s.norm.Self.UserID,
		UserName: s.norm.Self.UserName,
		Content:  content,
		Type:     msgType,
		ParentID: parentID,
	})
	return nil
}

// Close leaves the current room, unsubscribes from the transport and tears
// the connection down. Safe to call more than once; only the first call
// has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.LeaveRoom()
		s.mu.Lock()
		subs := s.subs
		s.subs = nil
		s.state = Disconnected
		s.mu.Unlock()
		for _, sub := range subs {
			s.transport.Off(sub.event, sub.token)
		}
		s.transport.Close()
	})
}
