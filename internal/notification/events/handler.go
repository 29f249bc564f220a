package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
)

// Recorder persists a notification for an event.
type Recorder interface {
	Record(ctx context.Context, ev notification.Event) (*notification.Notification, error)
}

type Handler struct {
	recorder Recorder
	logger   watermill.LoggerAdapter
}

func NewHandler(recorder Recorder, logger watermill.LoggerAdapter) *Handler {
	return &Handler{recorder: recorder, logger: logger}
}

// Handle records the event carried by msg. Payloads that cannot be decoded are
// acknowledged and dropped; storage errors are returned so the message is retried.
func (h *Handler) Handle(msg *message.Message) error {
	var ev notification.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		h.logger.Error("Dropping malformed booking event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}

	_, err := h.recorder.Record(msg.Context(), ev)
	return err
}
