package booking

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict        = apperror.New(http.StatusConflict, "resource is not available for the specified time range")
	ErrInvalidTimeRange    = apperror.New(http.StatusBadRequest, "end time must be after start time")
	ErrInvalidStatus       = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrIdentityAssigned    = apperror.New(http.StatusBadRequest, "new booking must not have an id")
	ErrResourceNotFound    = apperror.New(http.StatusNotFound, "resource not found")
	ErrResourceUnavailable = apperror.New(http.StatusBadRequest, "resource is not available for booking")
)

// ID identifies a Booking. It is assigned by storage on creation.
type ID string

// Status is the lifecycle state of a booking. The zero value is not a valid status.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusConfirmed
	StatusCancelled
)

// ActiveStatuses are the statuses that occupy a resource.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusCancelled: "cancelled",
}

// ParseStatus accepts the lowercase or uppercase status name.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "cancelled":
		return StatusCancelled, nil
	}
	return 0, ErrInvalidStatus
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsActive reports whether a booking in this status blocks its interval.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Booking reserves a resource for the half-open interval [StartTime, EndTime).
type Booking struct {
	ID            ID
	ResourceID    resource.ID
	CustomerName  string
	CustomerEmail string
	StartTime     time.Time
	EndTime       time.Time
	Status        Status
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// Filter defines parameters for listing bookings.
type Filter struct {
	ResourceID    resource.ID
	Status        Status // zero matches any status
	CustomerEmail string
	From          *time.Time // bookings ending after this instant
	To            *time.Time // bookings starting before this instant
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
