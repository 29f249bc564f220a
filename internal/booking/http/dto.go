package http

import (
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// ListBookingsRequest defines query parameters for listing bookings.
// start/end select bookings overlapping [start, end).
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,booking_status"`
	CustomerEmail string     `form:"customer_email" binding:"omitempty,email"`
	Start         *time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End           *time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

type AvailabilityRequest struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	Start      time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End        time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type FreeSlotsRequest struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	ResourceID    string    `json:"resource_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            string(b.ID),
		ResourceID:    string(b.ResourceID),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status.String(),
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateBookingRequest struct {
	// ID must be empty; it is accepted only so a client-supplied id is rejected explicitly.
	ID            string    `json:"id"`
	ResourceID    string    `json:"resource_id" binding:"required,uuid"`
	CustomerName  string    `json:"customer_name" binding:"required,max=255"`
	CustomerEmail string    `json:"customer_email" binding:"required,email"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	Status        string    `json:"status" binding:"omitempty,booking_status"`
	Notes         string    `json:"notes" binding:"max=2000"`
}

func (r *CreateBookingRequest) ToBooking() (booking.Booking, error) {
	status, err := parseOptionalStatus(r.Status)
	if err != nil {
		return booking.Booking{}, err
	}
	return booking.Booking{
		ID:            booking.ID(r.ID),
		ResourceID:    resource.ID(r.ResourceID),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        status,
		Notes:         r.Notes,
	}, nil
}

// UpdateBookingRequest replaces the booking. An omitted status keeps the current one.
type UpdateBookingRequest struct {
	ResourceID    string    `json:"resource_id" binding:"required,uuid"`
	CustomerName  string    `json:"customer_name" binding:"required,max=255"`
	CustomerEmail string    `json:"customer_email" binding:"required,email"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	Status        string    `json:"status" binding:"omitempty,booking_status"`
	Notes         string    `json:"notes" binding:"max=2000"`
}

func (r *UpdateBookingRequest) ToUpdate() (booking.UpdateRequest, error) {
	status, err := parseOptionalStatus(r.Status)
	if err != nil {
		return booking.UpdateRequest{}, err
	}
	return booking.UpdateRequest{
		ResourceID:    resource.ID(r.ResourceID),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        status,
		Notes:         r.Notes,
	}, nil
}

func parseOptionalStatus(s string) (booking.Status, error) {
	if s == "" {
		return 0, nil
	}
	return booking.ParseStatus(s)
}
