package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidCapacity = apperror.New(http.StatusBadRequest, "capacity must be a positive integer")
)

// ID identifies a Resource. It is assigned by storage on creation.
type ID string

// Resource represents a bookable unit (e.g. Meeting Room A, Lab 1, a projector).
// Available is an administrative switch and says nothing about current bookings.
type Resource struct {
	ID          ID
	Name        string
	Description string
	Capacity    int
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Available *bool
	Search    string // case-insensitive substring of the name
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
