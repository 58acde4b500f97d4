package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"revisionhub/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is the persistence and fan-out contract used by the hub and the
// HTTP handlers.
type Storage interface {
	SaveRoom(room *models.Room) error
	GetRoomByID(roomID string) (*models.Room, error)
	ListRooms(limit int) ([]models.Room, error)
	AdjustRoomMembers(roomID string, memberDelta, activeDelta int) error
	SetRoomFocus(roomID, focus string) error

	SaveMessage(msg *models.RoomMessage) error
	GetRoomMessages(roomID string, limit int) ([]models.RoomMessage, error)

	JoinParticipant(p *models.Participant) (created bool, err error)
	MarkParticipantLeft(roomID, userID string) error
	UpdateParticipantStatus(roomID, userID, status string) error
	GetRoomParticipants(roomID string) ([]models.Participant, error)

	SavePoll(poll *models.Poll) error
	GetRoomPolls(roomID string) ([]models.Poll, error)
	ApplyVote(pollID, optionID string) (*models.Poll, error)
	ClosePoll(pollID string) (*models.Poll, error)

	PublishRoomEvent(roomID string, env models.Envelope) error
	SubscribeRoomEvents() *redis.PubSub
}

// Service implements Storage over PostgreSQL (gorm) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveRoom persists a room in PostgreSQL.
func (s *Service) SaveRoom(room *models.Room) error {
	return s.DB.Save(room).Error
}

// GetRoomByID loads a single room.
func (s *Service) GetRoomByID(roomID string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// ListRooms returns active rooms, newest first.
func (s *Service) ListRooms(limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.Where("is_active = ?", true).
		Order("created_at desc").
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		log.Printf("ERROR: Failed to list rooms: %v", err)
		return nil, err
	}
	return rooms, nil
}

// AdjustRoomMembers shifts the member counters atomically. ActiveMembers is
// floored at zero so duplicate leave events cannot drive it negative.
func (s *Service) AdjustRoomMembers(roomID string, memberDelta, activeDelta int) error {
	return s.DB.Model(&models.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"member_count":   gorm.Expr("member_count + ?", memberDelta),
			"active_members": gorm.Expr("GREATEST(active_members + ?, 0)", activeDelta),
		}).Error
}

// SetRoomFocus updates the room's current focus topic.
func (s *Service) SetRoomFocus(roomID, focus string) error {
	result := s.DB.Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("current_focus", focus)
	if result.Error != nil {
		log.Printf("ERROR: Failed to set focus for room %s: %v", roomID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveMessage persists a chat message. The generated ID and CreatedAt are
// written back into msg so it can be broadcast afterwards.
func (s *Service) SaveMessage(msg *models.RoomMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}
	return nil
}

// GetRoomMessages loads up to limit messages for a room, oldest first.
func (s *Service) GetRoomMessages(roomID string, limit int) ([]models.RoomMessage, error) {
	var messages []models.RoomMessage
	err := s.DB.Where("room_id = ?", roomID).
		Order("created_at asc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return messages, nil
		}
		log.Printf("ERROR: Failed to get messages for room %s: %v", roomID, err)
		return nil, err
	}
	return messages, nil
}

// JoinParticipant records a user joining a room. If the membership already
// exists it is reactivated; created reports whether this was a first join.
func (s *Service) JoinParticipant(p *models.Participant) (bool, error) {
	var existing models.Participant
	err := s.DB.Where("room_id = ? AND user_id = ?", p.RoomID, p.UserID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.Status = models.StatusActive
		if p.JoinedAt.IsZero() {
			p.JoinedAt = time.Now()
		}
		if err := s.DB.Create(p).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	// Returning member: reactivate, keep the original JoinedAt.
	existing.Status = models.StatusActive
	existing.LeftAt = nil
	if p.UserName != "" {
		existing.UserName = p.UserName
	}
	return false, s.DB.Save(&existing).Error
}

// MarkParticipantLeft flips the participant to away and stamps LeftAt.
// The record is kept so message attribution survives.
func (s *Service) MarkParticipantLeft(roomID, userID string) error {
	now := time.Now()
	return s.DB.Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"status":  models.StatusAway,
			"left_at": &now,
		}).Error
}

// UpdateParticipantStatus sets the presence status for a member.
func (s *Service) UpdateParticipantStatus(roomID, userID, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid participant status %q", status)
	}
	return s.DB.Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("status", status).Error
}

// GetRoomParticipants returns all membership records for a room, including
// members who have left (status away).
func (s *Service) GetRoomParticipants(roomID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.DB.Where("room_id = ?", roomID).
		Order("joined_at asc").
		Find(&participants).Error
	if err != nil {
		log.Printf("ERROR: Failed to get participants for room %s: %v", roomID, err)
		return nil, err
	}
	return participants, nil
}

// SavePoll persists a poll.
func (s *Service) SavePoll(poll *models.Poll) error {
	return s.DB.Save(poll).Error
}

// GetRoomPolls returns the active polls for a room, newest first.
func (s *Service) GetRoomPolls(roomID string) ([]models.Poll, error) {
	var polls []models.Poll
	err := s.DB.Where("room_id = ? AND is_active = ?", roomID, true).
		Order("created_at desc").
		Find(&polls).Error
	if err != nil {
		log.Printf("ERROR: Failed to get polls for room %s: %v", roomID, err)
		return nil, err
	}
	return polls, nil
}

// ApplyVote increments one option and the total inside a transaction and
// returns the new authoritative poll state. TotalVotes stays equal to the
// sum of option votes.
func (s *Service) ApplyVote(pollID, optionID string) (*models.Poll, error) {
	var poll models.Poll

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", pollID).First(&poll).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		found := false
		for i := range poll.Options {
			if poll.Options[i].ID == optionID {
				poll.Options[i].Votes++
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("poll %s has no option %s", pollID, optionID)
		}
		poll.TotalVotes++

		return tx.Save(&poll).Error
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// ClosePoll deactivates a poll and returns its final state. Closed polls
// drop out of GetRoomPolls but keep their votes for the results view.
func (s *Service) ClosePoll(pollID string) (*models.Poll, error) {
	var poll models.Poll

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", pollID).First(&poll).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !poll.IsActive {
			return nil
		}
		poll.IsActive = false
		return tx.Save(&poll).Error
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// PublishRoomEvent fans an event out to every instance through Redis Pub/Sub.
func (s *Service) PublishRoomEvent(roomID string, env models.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, roomChannel(roomID), payload).Err()
}

// SubscribeRoomEvents subscribes to the room event channels of all rooms.
func (s *Service) SubscribeRoomEvents() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, "room:*")
}

// RoomIDFromChannel recovers the room id from a pub/sub channel name.
func RoomIDFromChannel(channel string) string {
	return strings.TrimPrefix(channel, "room:")
}

func roomChannel(roomID string) string {
	return "room:" + roomID
}
