package roomsession

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"revisionhub/backend/internal/models"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsWriteWait        = 10 * time.Second
	wsPongWait         = 60 * time.Second
	wsPingPeriod       = (wsPongWait * 9) / 10
	wsSendBuffer       = 64
)

// WSTransport is the websocket implementation of Transport. Incoming
// frames are envelopes whose event name selects the registered handlers;
// outgoing commands are queued and written by a single writer goroutine.
type WSTransport struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	send      chan models.Command
	done      chan struct{}
	handlers  map[string]map[int]EventHandler
	nextToken int
}

// NewWSTransport builds a transport for the given websocket URL. Handlers
// may be registered before Init; they survive across reconnects.
func NewWSTransport(url string) *WSTransport {
	return &WSTransport{
		url:      url,
		handlers: make(map[string]map[int]EventHandler),
	}
}

// Init dials the server and starts the read and write pumps. A second Init
// on a live connection is a no-op.
func (t *WSTransport) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}
	t.conn = conn
	t.connected = true
	t.send = make(chan models.Command, wsSendBuffer)
	t.done = make(chan struct{})
	go t.readPump(conn)
	go t.writePump(conn, t.send, t.done)
	return nil
}

// IsConnected reports whether the websocket is live.
func (t *WSTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Close shuts the connection down. Registered handlers are kept so a later
// Init resumes delivery.
func (t *WSTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
}

func (t *WSTransport) teardownLocked() {
	if !t.connected {
		return
	}
	t.connected = false
	close(t.done)
	if err := t.conn.Close(); err != nil {
		log.Printf("WARNING: closing websocket: %v", err)
	}
	t.conn = nil
}

// On registers a handler for event and returns the token to pass to Off.
func (t *WSTransport) On(event string, h EventHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextToken++
	if t.handlers[event] == nil {
		t.handlers[event] = make(map[int]EventHandler)
	}
	t.handlers[event][t.nextToken] = h
	return t.nextToken
}

// Off removes the handler registered under token for event.
func (t *WSTransport) Off(event string, token int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers[event], token)
}

func (t *WSTransport) JoinRoom(roomID string) {
	t.command(models.ActionJoinRoom, models.RoomRefPayload{RoomID: roomID})
}

func (t *WSTransport) LeaveRoom(roomID string) {
	t.command(models.ActionLeaveRoom, models.RoomRefPayload{RoomID: roomID})
}

func (t *WSTransport) SendChatMessage(roomID string, msg OutgoingMessage) {
	payload := models.MessagePayload{
		RoomID:   roomID,
		UserID:   msg.UserID,
		UserName: msg.UserName,
		Content:  msg.Content,
		Type:     msg.Type,
	}
	if msg.ParentID != "" {
		parent := msg.ParentID
		payload.ParentID = &parent
	}
	t.command(models.ActionSendMessage, payload)
}

func (t *WSTransport) UpdateStatus(roomID, userID, status string) {
	t.command(models.ActionChangeStatus, models.StatusPayload{
		RoomID: roomID,
		UserID: userID,
		Status: status,
	})
}

func (t *WSTransport) VotePoll(roomID, pollID, optionID string) {
	t.command(models.ActionVotePoll, models.VotePayload{
		RoomID:   roomID,
		PollID:   pollID,
		OptionID: optionID,
	})
}

func (t *WSTransport) command(action string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: encoding %s payload: %v", action, err)
		return
	}
	cmd := models.Command{Action: action, Data: data}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		log.Printf("WARNING: dropping %s, transport is not connected", action)
		return
	}
	select {
	case t.send <- cmd:
	default:
		log.Printf("WARNING: dropping %s, send queue is full", action)
	}
}

func (t *WSTransport) readPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			wasConnected := t.connected
			t.teardownLocked()
			t.mu.Unlock()
			if wasConnected {
				log.Printf("WARNING: websocket read failed: %v", err)
				t.dispatch(models.EventSocketError, errorData(err))
			}
			return
		}
		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("WARNING: dropping malformed frame: %v", err)
			continue
		}
		t.dispatch(env.Event, env.Data)
	}
}

func (t *WSTransport) writePump(conn *websocket.Conn, send <-chan models.Command, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case cmd := <-send:
			data, err := json.Marshal(cmd)
			if err != nil {
				log.Printf("ERROR: encoding command: %v", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("WARNING: websocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// dispatch invokes the handlers registered for event, sequentially and in
// registration order.
func (t *WSTransport) dispatch(event string, data json.RawMessage) {
	t.mu.Lock()
	tokens := make([]int, 0, len(t.handlers[event]))
	for token := range t.handlers[event] {
		tokens = append(tokens, token)
	}
	sort.Ints(tokens)
	handlers := make([]EventHandler, 0, len(tokens))
	for _, token := range tokens {
		handlers = append(handlers, t.handlers[event][token])
	}
	t.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

func errorData(err error) json.RawMessage {
	data, marshalErr := json.Marshal(rawErrorEvent{Message: err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"message":"socket error"}`)
	}
	return data
}
