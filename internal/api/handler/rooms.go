package handler

import (
	"errors"
	"net/http"
	"strconv"

	"revisionhub/backend/internal/config"
	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// ListRooms returns active rooms, newest first. GET /rooms?limit=
func (h *Handler) ListRooms(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), config.DefaultRoomListLimit, config.MaxRoomListLimit)

	rooms, err := h.Storage.ListRooms(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	respondOK(c, http.StatusOK, rooms)
}

// GetRoom returns one room by id. GET /rooms/:roomId
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Storage.GetRoomByID(c.Param("roomId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "room not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load room")
		return
	}
	respondOK(c, http.StatusOK, room)
}

// GetRoomMessages returns a room's chat history, oldest first.
// GET /rooms/:roomId/messages?limit=
func (h *Handler) GetRoomMessages(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), config.MessageHistoryLimit, config.MessageHistoryLimit)

	messages, err := h.Storage.GetRoomMessages(c.Param("roomId"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load messages")
		return
	}
	respondOK(c, http.StatusOK, messages)
}

// GetRoomParticipants returns all membership records for a room.
// GET /rooms/:roomId/participants
func (h *Handler) GetRoomParticipants(c *gin.Context) {
	participants, err := h.Storage.GetRoomParticipants(c.Param("roomId"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load participants")
		return
	}
	respondOK(c, http.StatusOK, participants)
}

type createRoomRequest struct {
	Name        string   `json:"name" binding:"required"`
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	UnitCode    string   `json:"unit_code"`
	FacultyCode string   `json:"faculty_code"`
	Tags        []string `json:"tags"`
}

// CreateRoom opens a new revision room. POST /rooms
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "room name is required")
		return
	}

	room := &models.Room{
		Name:        req.Name,
		Topic:       req.Topic,
		Description: req.Description,
		UnitCode:    req.UnitCode,
		FacultyCode: req.FacultyCode,
		Tags:        pq.StringArray(req.Tags),
		IsActive:    true,
	}
	if err := h.Storage.SaveRoom(room); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create room")
		return
	}
	respondOK(c, http.StatusCreated, room)
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
