package roomhub

import (
	"encoding/json"
	"log"

	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/storage"
)

// StartEventListener runs a goroutine that relays Redis room events into the
// hub loop. Broadcasts published by any instance, this one included, arrive
// here and are delivered to the local members of the room. Call it once at
// startup, alongside Run.
func (h *Hub) StartEventListener() {
	go func() {
		pubsub := h.Storage.SubscribeRoomEvents()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			roomID := storage.RoomIDFromChannel(msg.Channel)
			if roomID == "" {
				continue
			}

			var env models.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("ERROR: bad room event payload on %s: %v", msg.Channel, err)
				continue
			}

			h.RoomEventCh <- RoomEvent{RoomID: roomID, Envelope: env}
		}
	}()
}
