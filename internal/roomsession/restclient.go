package roomsession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const restTimeout = 10 * time.Second

// RESTClient talks to the room API. It implements RoomService and
// PollService.
type RESTClient struct {
	baseURL string
	http    *http.Client
}

// NewRESTClient builds a client for the API at baseURL, e.g.
// "http://localhost:8080".
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: restTimeout},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *RESTClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response for %s: %w", path, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("GET %s: %s", path, msg)
	}
	return json.Unmarshal(env.Data, out)
}

// Room fetches a room's metadata.
func (c *RESTClient) Room(ctx context.Context, roomID string) (RawRoom, error) {
	var room RawRoom
	err := c.get(ctx, "/rooms/"+url.PathEscape(roomID), &room)
	return room, err
}

// Messages fetches up to limit recent messages of a room.
func (c *RESTClient) Messages(ctx context.Context, roomID string, limit int) ([]RawMessage, error) {
	path := "/rooms/" + url.PathEscape(roomID) + "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var messages []RawMessage
	err := c.get(ctx, path, &messages)
	return messages, err
}

// Participants fetches a room's membership list.
func (c *RESTClient) Participants(ctx context.Context, roomID string) ([]RawParticipant, error) {
	var participants []RawParticipant
	err := c.get(ctx, "/rooms/"+url.PathEscape(roomID)+"/participants", &participants)
	return participants, err
}

// RoomPolls fetches a room's polls.
func (c *RESTClient) RoomPolls(ctx context.Context, roomID string) ([]RawPoll, error) {
	var polls []RawPoll
	err := c.get(ctx, "/polls/room/"+url.PathEscape(roomID), &polls)
	return polls, err
}
