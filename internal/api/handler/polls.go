package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"revisionhub/backend/internal/config"
	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetRoomPolls returns the active polls for a room, newest first.
// GET /polls/room/:roomId
func (h *Handler) GetRoomPolls(c *gin.Context) {
	polls, err := h.Storage.GetRoomPolls(c.Param("roomId"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load polls")
		return
	}
	respondOK(c, http.StatusOK, polls)
}

type createPollRequest struct {
	RoomID   string   `json:"roomId" binding:"required"`
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// CreatePoll opens a new poll in a room. POST /polls
func (h *Handler) CreatePoll(c *gin.Context) {
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "roomId, question and options are required")
		return
	}
	if len(req.Options) < config.MinPollOptions || len(req.Options) > config.MaxPollOptions {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("polls need between %d and %d options", config.MinPollOptions, config.MaxPollOptions))
		return
	}

	options := make(models.PollOptions, 0, len(req.Options))
	for i, text := range req.Options {
		options = append(options, models.PollOption{
			ID:   fmt.Sprintf("o%d", i+1),
			Text: text,
		})
	}

	poll := &models.Poll{
		RoomID:   req.RoomID,
		Question: req.Question,
		Options:  options,
		IsActive: true,
	}
	if err := h.Storage.SavePoll(poll); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create poll")
		return
	}
	respondOK(c, http.StatusCreated, poll)
}

// ClosePoll deactivates a poll and broadcasts its final tallies to the
// room. POST /polls/:pollId/close
func (h *Handler) ClosePoll(c *gin.Context) {
	poll, err := h.Storage.ClosePoll(c.Param("pollId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "poll not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to close poll")
		return
	}

	total := poll.TotalVotes
	data, err := json.Marshal(models.PollUpdatePayload{
		ID:         poll.ID,
		RoomID:     poll.RoomID,
		Question:   poll.Question,
		Options:    poll.Options,
		TotalVotes: &total,
	})
	if err == nil {
		err = h.Storage.PublishRoomEvent(poll.RoomID, models.Envelope{
			Event: models.EventPollUpdated,
			Data:  data,
		})
	}
	if err != nil {
		log.Printf("WARNING: final state of poll %s not broadcast: %v", poll.ID, err)
	}

	respondOK(c, http.StatusOK, poll)
}
