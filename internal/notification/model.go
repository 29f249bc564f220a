package notification

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

var ErrNotFound = apperror.New(http.StatusNotFound, "notification not found")

// EventType names the booking mutation that produced a notification.
type EventType string

const (
	TypeCreated   EventType = "CREATED"
	TypeUpdated   EventType = "UPDATED"
	TypeCancelled EventType = "CANCELLED"
)

// Event is what the booking lifecycle emits after a successful mutation.
// It is also the payload carried on the message bus.
type Event struct {
	BookingID  string      `json:"booking_id"`
	Title      string      `json:"title"`
	Type       EventType   `json:"type"`
	StartAt    time.Time   `json:"start_at"`
	EndAt      time.Time   `json:"end_at"`
	ResourceID resource.ID `json:"resource_id"`
}

// ResourceSnapshot is the state of the booked resource when the notification was recorded.
type ResourceSnapshot struct {
	ID          resource.ID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Capacity    int         `json:"capacity"`
	Available   bool        `json:"available"`
}

func NewSnapshot(r *resource.Resource) *ResourceSnapshot {
	return &ResourceSnapshot{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		Available:   r.Available,
	}
}

type Notification struct {
	ID         string
	BookingID  string
	Title      string
	Type       EventType
	StartAt    time.Time
	EndAt      time.Time
	ResourceID resource.ID
	Resource   *ResourceSnapshot // nil when the resource no longer existed
	CreatedAt  time.Time
}

// Filter defines parameters for listing notifications.
type Filter struct {
	BookingID string
	Type      EventType
	Page      int
	PageSize  int
}
