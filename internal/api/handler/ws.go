package handler

import (
	"net/http"

	"revisionhub/backend/internal/config"
	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/roomhub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection to a websocket and registers
// the client with the hub. Identity comes from the query string; the auth
// service in front of this one is expected to have vetted it.
// GET /ws?userId=...&userName=...
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	userName := c.Query("userName")
	if userName == "" {
		userName = config.FallbackUserName
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &roomhub.WebSocketClient{
		Hub:      h.Hub,
		UserID:   userID,
		UserName: userName,
		Conn:     conn,
		Send:     make(chan models.Envelope, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
