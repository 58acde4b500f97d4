package roomsession

import (
	"sort"
	"time"

	"revisionhub/backend/internal/config"
)

// FeedItemKind discriminates feed entries.
type FeedItemKind int

const (
	FeedDateSeparator FeedItemKind = iota
	FeedMessageGroup
)

// FeedItem is one display row of the message feed: either a date separator
// or a group of consecutive messages.
type FeedItem struct {
	Kind  FeedItemKind
	Date  time.Time
	Group *MessageGroup
}

// ResolvedMessage is a chat message with its reply parent attached, when
// the parent is present in the feed.
type ResolvedMessage struct {
	ChatMessage
	Parent *ChatMessage
}

// MessageGroup is a run of messages rendered under one header. System and
// ai messages, and replies, always form singleton groups.
type MessageGroup struct {
	UserID        string
	UserName      string
	Type          string
	IsCurrentUser bool
	Messages      []ResolvedMessage
}

// BuildFeed arranges messages for display. It sorts by timestamp with a
// stable tiebreak, resolves reply parents, merges consecutive messages of
// the same user and type sent within config.MessageGroupWindow of each
// other, and inserts a separator whenever the local calendar day changes.
// The input is not modified and the result is deterministic.
func BuildFeed(messages []ChatMessage) []FeedItem {
	sorted := append([]ChatMessage(nil), messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	byID := make(map[string]*ChatMessage, len(sorted))
	for i := range sorted {
		byID[sorted[i].ID] = &sorted[i]
	}

	var groups []*MessageGroup
	var current *MessageGroup
	var lastTS time.Time
	for i := range sorted {
		msg := sorted[i]
		resolved := ResolvedMessage{ChatMessage: msg}
		if msg.ParentID != "" && msg.ParentID != msg.ID {
			// A dangling parent id renders the message as a plain,
			// non-reply entry.
			resolved.Parent = byID[msg.ParentID]
		}
		singleton := msg.Type == "system" || msg.Type == "ai" || resolved.Parent != nil
		joins := current != nil &&
			!singleton &&
			len(current.Messages) > 0 &&
			current.UserID == msg.UserID &&
			current.Type == msg.Type &&
			msg.Timestamp.Sub(lastTS) <= config.MessageGroupWindow
		if joins {
			current.Messages = append(current.Messages, resolved)
		} else {
			current = &MessageGroup{
				UserID:        msg.UserID,
				UserName:      msg.UserName,
				Type:          msg.Type,
				IsCurrentUser: msg.IsCurrentUser,
				Messages:      []ResolvedMessage{resolved},
			}
			groups = append(groups, current)
		}
		lastTS = msg.Timestamp
		if singleton {
			// Nothing merges into a singleton group.
			current = nil
		}
	}

	feed := make([]FeedItem, 0, len(groups))
	var lastDay string
	for _, g := range groups {
		first := g.Messages[0].Timestamp
		day := first.Local().Format("2006-01-02")
		if day != lastDay {
			y, m, d := first.Local().Date()
			feed = append(feed, FeedItem{
				Kind: FeedDateSeparator,
				Date: time.Date(y, m, d, 0, 0, 0, 0, time.Local),
			})
			lastDay = day
		}
		feed = append(feed, FeedItem{Kind: FeedMessageGroup, Group: g})
	}
	return feed
}
