package roomsession

// CurrentPoll returns a copy of the room's poll, or nil when none is
// loaded.
func (s *Session) CurrentPoll() *Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poll == nil {
		return nil
	}
	p := *s.poll
	p.Options = append([]PollOption(nil), s.poll.Options...)
	return &p
}

// Vote casts a vote for an option of the current poll. The local counts
// are incremented optimistically before the vote is sent; the server's
// subsequent poll_updated event replaces them with authoritative values.
func (s *Session) Vote(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ErrNoRoom
	}
	if s.poll == nil {
		return ErrNoPoll
	}
	idx := -1
	for i := range s.poll.Options {
		if s.poll.Options[i].ID == optionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownOption
	}
	s.poll.Options[idx].Votes++
	s.poll.TotalVotes++
	s.transport.VotePoll(s.room.ID, s.poll.ID, optionID)
	return nil
}

// applyPollUpdate reconciles the local poll with an authoritative server
// update. Option counts are replaced wholesale, never merged, so the last
// server update always wins over optimistic local increments. Updates for
// a poll other than the tracked one are dropped, including when no poll is
// tracked at all; polls only enter the session through the room load.
func (s *Session) applyPollUpdate(u PollUpdate) {
	if s.room == nil {
		return
	}
	if u.RoomID != "" && u.RoomID != s.room.ID {
		return
	}
	if s.poll == nil || u.ID != s.poll.ID {
		return
	}
	if u.Question != "" {
		s.poll.Question = u.Question
	}
	if u.Options != nil {
		s.poll.Options = append([]PollOption(nil), u.Options...)
	}
	if u.TotalVotes != nil {
		s.poll.TotalVotes = *u.TotalVotes
	}
}

// adoptPolls takes the first poll of the room's poll list, matching the
// single-poll room model. Called with the session lock held.
func (s *Session) adoptPolls(polls []RawPoll) {
	if len(polls) == 0 {
		s.poll = nil
		return
	}
	raw := polls[0]
	poll := &Poll{
		ID:         raw.ID,
		Question:   raw.Question,
		TotalVotes: raw.TotalVotes,
	}
	for _, o := range raw.Options {
		poll.Options = append(poll.Options, PollOption(o))
	}
	s.poll = poll
}
