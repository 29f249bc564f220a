package booking

import (
	"context"
	"slices"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps is the half-open overlap predicate. Intervals that only touch
// (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// IsAvailable reports whether candidate can be granted against existing.
// Non-active bookings and the booking with id exclude are ignored.
func IsAvailable(candidate Interval, existing []*Booking, exclude ID) bool {
	for _, b := range existing {
		if !b.Status.IsActive() {
			continue
		}
		if exclude != "" && b.ID == exclude {
			continue
		}
		if Overlaps(candidate, b.Interval()) {
			return false
		}
	}
	return true
}

// FreeSlots returns the parts of window not covered by active bookings,
// in chronological order. It returns nil when the window is fully booked.
func FreeSlots(window Interval, bookings []*Booking) []Interval {
	if !window.Valid() {
		return nil
	}

	busy := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Status.IsActive() && Overlaps(window, b.Interval()) {
			busy = append(busy, b.Interval())
		}
	}
	slices.SortFunc(busy, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	var free []Interval
	cursor := window.Start
	for _, iv := range busy {
		if iv.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if window.End.After(cursor) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// OverlapFinder is the storage query the Engine depends on.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, resourceID resource.ID, start, end time.Time, statuses []Status) ([]*Booking, error)
}

// Engine answers availability questions for a single resource from a storage snapshot.
// It does not check that the resource exists or that start < end.
type Engine struct {
	finder OverlapFinder
}

func NewEngine(finder OverlapFinder) *Engine {
	return &Engine{finder: finder}
}

func (e *Engine) IsAvailable(ctx context.Context, resourceID resource.ID, start, end time.Time, exclude ID) (bool, error) {
	existing, err := e.finder.FindOverlapping(ctx, resourceID, start, end, ActiveStatuses)
	if err != nil {
		return false, err
	}
	return IsAvailable(Interval{Start: start, End: end}, existing, exclude), nil
}
