package roomhub

import (
	"encoding/json"
	"log"
	"time"

	"revisionhub/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// WebSocketClient implements the roomhub.Client interface over a
// gorilla/websocket connection.
type WebSocketClient struct {
	UserID   string
	UserName string
	RoomID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan models.Envelope
}

func (c *WebSocketClient) GetUserID() string                      { return c.UserID }
func (c *WebSocketClient) GetUserName() string                    { return c.UserName }
func (c *WebSocketClient) GetRoomID() string                      { return c.RoomID }
func (c *WebSocketClient) SetRoomID(id string)                    { c.RoomID = id }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump. The read pump
// stops itself when the connection closes.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var cmd models.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Printf("Error decoding command from client %s: %v", c.UserID, err)
			continue
		}

		c.Hub.CommandCh <- Command{Client: c, Action: cmd.Action, Data: cmd.Data}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(env)
			if err != nil {
				log.Printf("Error encoding event for client %s: %v", c.UserID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
