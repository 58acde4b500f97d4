package roomsession

import (
	"log"
	"sync"
)

// ConnState is the session connection state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	ConnectedNoRoom
	ConnectedInRoom
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case ConnectedNoRoom:
		return "connected"
	case ConnectedInRoom:
		return "in_room"
	default:
		return "unknown"
	}
}

// RoomState is the session's view of the current room. It is mutated only
// under the session lock; readers get copies via Snapshot.
type RoomState struct {
	ID            string
	Name          string
	Topic         string
	Description   string
	UnitCode      string
	FacultyCode   string
	Tags          []string
	CurrentFocus  string
	IsActive      bool
	MemberCount   int
	ActiveMembers int
	Messages      []ChatMessage
	Participants  []Participant

	seen map[string]struct{}
}

// RoomSnapshot is a point-in-time copy of the current room, safe to read
// without holding any session lock.
type RoomSnapshot struct {
	ID            string
	Name          string
	Topic         string
	Description   string
	UnitCode      string
	FacultyCode   string
	Tags          []string
	CurrentFocus  string
	IsActive      bool
	MemberCount   int
	ActiveMembers int
	Messages      []ChatMessage
	Participants  []Participant
}

type subscription struct {
	event string
	token int
}

// Session is the client synchronization core. It owns at most one current
// room, folds the transport's event stream into it, and exposes snapshot
// reads. All transitions are serialized: transport events arrive on the
// transport's single read loop and local actions take the same lock.
type Session struct {
	transport Transport
	rooms     RoomService
	polls     PollService
	norm      Normalizer

	mu           sync.RWMutex
	state        ConnState
	room         *RoomState
	poll         *Poll
	lastErr      string
	joinedRoomID string

	// loadMu serializes LoadRoom/LeaveRoom so a rapid room switch emits
	// exactly one leave and one join per actual transition.
	loadMu sync.Mutex

	subscribeOnce sync.Once
	closeOnce     sync.Once
	subs          []subscription
}

// NewSession builds a session for the given user. The record may come from
// either the REST or the socket naming convention; it is normalized into
// the session identity here, before anything else sees it. The transport is
// not connected until Init.
func NewSession(t Transport, rooms RoomService, polls PollService, user RawUser) *Session {
	return &Session{
		transport: t,
		rooms:     rooms,
		polls:     polls,
		norm:      Normalizer{Self: NormalizeUser(user)},
		state:     Disconnected,
	}
}

// Dispatch applies a single event to the session state. The transport's
// event handlers funnel through here; tests may call it directly.
func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := ev.(type) {
	case MessageReceived:
		s.applyMessage(e.Message)
	case ParticipantJoined:
		s.applyJoined(e)
	case ParticipantLeft:
		s.applyLeft(e)
	case StatusUpdated:
		s.applyStatus(e)
	case PollUpdated:
		s.applyPollUpdate(e.Update)
	case RoomUpdated:
		s.applyRoomUpdate(e.Update)
	case SocketError:
		s.lastErr = e.Message
	default:
		log.Printf("WARNING: unhandled session event %T", ev)
	}
}

func (s *Session) applyMessage(msg ChatMessage) {
	if s.room == nil {
		return
	}
	if msg.RoomID != "" && msg.RoomID != s.room.ID {
		return
	}
	if _, dup := s.room.seen[msg.ID]; dup {
		return
	}
	s.room.seen[msg.ID] = struct{}{}
	s.room.Messages = append(s.room.Messages, msg)
}

func (s *Session) applyJoined(e ParticipantJoined) {
	if s.room == nil || e.RoomID != s.room.ID {
		return
	}
	if s.findParticipant(e.Participant.UserID) != nil {
		return
	}
	s.room.Participants = append(s.room.Participants, e.Participant)
	s.room.MemberCount++
	s.room.ActiveMembers++
}

func (s *Session) applyLeft(e ParticipantLeft) {
	if s.room == nil || e.RoomID != s.room.ID {
		return
	}
	p := s.findParticipant(e.UserID)
	if p == nil || p.Status == "away" {
		return
	}
	p.Status = "away"
	at := e.At
	p.LeftAt = &at
	if s.room.ActiveMembers > 0 {
		s.room.ActiveMembers--
	}
}

func (s *Session) applyStatus(e StatusUpdated) {
	if s.room == nil || e.RoomID != s.room.ID {
		return
	}
	if p := s.findParticipant(e.UserID); p != nil {
		p.Status = e.Status
	}
}

func (s *Session) applyRoomUpdate(u RoomUpdate) {
	if s.room == nil || u.ID != s.room.ID {
		return
	}
	if u.Name != nil {
		s.room.Name = *u.Name
	}
	if u.Topic != nil {
		s.room.Topic = *u.Topic
	}
	if u.Description != nil {
		s.room.Description = *u.Description
	}
	if u.CurrentFocus != nil {
		s.room.CurrentFocus = *u.CurrentFocus
	}
	if u.IsActive != nil {
		s.room.IsActive = *u.IsActive
	}
}

func (s *Session) findParticipant(userID string) *Participant {
	for i := range s.room.Participants {
		if s.room.Participants[i].UserID == userID {
			return &s.room.Participants[i]
		}
	}
	return nil
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError returns the most recently recorded transport or load error
// message, "" when none occurred.
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Room returns a snapshot of the current room, or nil when no room is
// loaded.
func (s *Session) Room() *RoomSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return nil
	}
	snap := &RoomSnapshot{
		ID:            s.room.ID,
		Name:          s.room.Name,
		Topic:         s.room.Topic,
		Description:   s.room.Description,
		UnitCode:      s.room.UnitCode,
		FacultyCode:   s.room.FacultyCode,
		Tags:          append([]string(nil), s.room.Tags...),
		CurrentFocus:  s.room.CurrentFocus,
		IsActive:      s.room.IsActive,
		MemberCount:   s.room.MemberCount,
		ActiveMembers: s.room.ActiveMembers,
		Messages:      append([]ChatMessage(nil), s.room.Messages...),
		Participants:  append([]Participant(nil), s.room.Participants...),
	}
	return snap
}

// Feed returns the current room's messages arranged for display: grouped,
// threaded and interleaved with date separators. Nil when no room is
// loaded.
func (s *Session) Feed() []FeedItem {
	snap := s.Room()
	if snap == nil {
		return nil
	}
	return BuildFeed(snap.Messages)
}
