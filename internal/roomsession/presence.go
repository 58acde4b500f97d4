package roomsession

// Participants returns a copy of the current room's membership in join
// order. Members who left stay in the list with status away.
func (s *Session) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return nil
	}
	return append([]Participant(nil), s.room.Participants...)
}

// ActiveMembers returns the room's active member counter. It never goes
// negative, whatever order leave events arrive in.
func (s *Session) ActiveMembers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return 0
	}
	return s.room.ActiveMembers
}

// MemberCount returns the room's total member counter.
func (s *Session) MemberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return 0
	}
	return s.room.MemberCount
}

// OnlineParticipants returns the members whose status is not away.
func (s *Session) OnlineParticipants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return nil
	}
	var online []Participant
	for _, p := range s.room.Participants {
		if p.Status != "away" {
			online = append(online, p)
		}
	}
	return online
}

// UpdateStatus changes the local user's presence status and announces it.
// Valid statuses are active, idle and away.
func (s *Session) UpdateStatus(status string) error {
	if status != "active" && status != "idle" && status != "away" {
		return ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ErrNoRoom
	}
	s.transport.UpdateStatus(s.room.ID, s.norm.Self.UserID, status)
	return nil
}
