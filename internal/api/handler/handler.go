package handler

import (
	"revisionhub/backend/internal/roomhub"
	"revisionhub/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the hub and storage used by the HTTP endpoints.
type Handler struct {
	Hub     *roomhub.Hub
	Storage storage.Storage
}

func NewHandler(hub *roomhub.Hub, s storage.Storage) *Handler {
	return &Handler{Hub: hub, Storage: s}
}

// Every REST response uses the {success, data} / {success, error} envelope
// the clients expect.

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
