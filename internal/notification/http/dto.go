package http

import (
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
)

type NotificationResponse struct {
	ID         string                         `json:"id"`
	BookingID  string                         `json:"booking_id"`
	Title      string                         `json:"title"`
	Type       notification.EventType         `json:"type"`
	StartAt    time.Time                      `json:"start_at"`
	EndAt      time.Time                      `json:"end_at"`
	ResourceID string                         `json:"resource_id"`
	Resource   *notification.ResourceSnapshot `json:"resource"`
	CreatedAt  time.Time                      `json:"created_at"`
}

func NewResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		BookingID:  n.BookingID,
		Title:      n.Title,
		Type:       n.Type,
		StartAt:    n.StartAt,
		EndAt:      n.EndAt,
		ResourceID: string(n.ResourceID),
		Resource:   n.Resource,
		CreatedAt:  n.CreatedAt,
	}
}

type ListNotificationsRequest struct {
	request.ListParams
	BookingID string `form:"booking_id" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=CREATED UPDATED CANCELLED"`
}

type ByBookingRequest struct {
	BookingID string `uri:"bookingId" binding:"required,uuid"`
}
