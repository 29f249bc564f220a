package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// at returns 2026-02-08 hh:mm UTC.
func at(hh, mm int) time.Time {
	return time.Date(2026, 2, 8, hh, mm, 0, 0, time.UTC)
}

func iv(from, to int) Interval {
	return Interval{Start: at(from, 0), End: at(to, 0)}
}

func bk(id ID, from, to int, status Status) *Booking {
	return &Booking{ID: id, ResourceID: "room-a", StartTime: at(from, 0), EndTime: at(to, 0), Status: status}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(9, 10), iv(9, 10), true},
		{"partial", iv(9, 11), iv(10, 12), true},
		{"contained", iv(9, 12), iv(10, 11), true},
		{"adjacent after", iv(9, 10), iv(10, 11), false},
		{"adjacent before", iv(10, 11), iv(9, 10), false},
		{"disjoint", iv(9, 10), iv(14, 15), false},
		{"one minute overlap", Interval{at(9, 0), at(10, 1)}, iv(10, 11), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, Overlaps(tt.a, tt.b), Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestIsAvailable(t *testing.T) {
	existing := []*Booking{
		bk("confirmed", 10, 11, StatusConfirmed),
		bk("pending", 13, 14, StatusPending),
		bk("cancelled", 15, 16, StatusCancelled),
	}

	tests := []struct {
		name      string
		candidate Interval
		exclude   ID
		want      bool
	}{
		{"free slot", iv(8, 9), "", true},
		{"overlaps confirmed", iv(9, 11), "", false},
		{"overlaps pending", iv(13, 15), "", false},
		{"adjacent to confirmed", iv(11, 13), "", true},
		{"cancelled never blocks", iv(15, 16), "", true},
		{"self excluded", iv(10, 11), "confirmed", true},
		{"exclusion is per id", iv(10, 14), "confirmed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAvailable(tt.candidate, existing, tt.exclude))
		})
	}
}

func TestFreeSlots(t *testing.T) {
	window := iv(9, 18)

	tests := []struct {
		name     string
		bookings []*Booking
		want     []Interval
	}{
		{
			name:     "no bookings, full window available",
			bookings: nil,
			want:     []Interval{iv(9, 18)},
		},
		{
			name:     "one booking in the middle",
			bookings: []*Booking{bk("a", 12, 13, StatusConfirmed)},
			want:     []Interval{iv(9, 12), iv(13, 18)},
		},
		{
			name:     "pending occupies like confirmed",
			bookings: []*Booking{bk("a", 10, 11, StatusPending)},
			want:     []Interval{iv(9, 10), iv(11, 18)},
		},
		{
			name:     "cancelled booking is ignored",
			bookings: []*Booking{bk("a", 10, 11, StatusCancelled)},
			want:     []Interval{iv(9, 18)},
		},
		{
			name:     "booking covers entire window",
			bookings: []*Booking{bk("a", 9, 18, StatusConfirmed)},
			want:     nil,
		},
		{
			name: "unsorted bookings",
			bookings: []*Booking{
				bk("a", 14, 16, StatusConfirmed),
				bk("b", 10, 12, StatusConfirmed),
			},
			want: []Interval{iv(9, 10), iv(12, 14), iv(16, 18)},
		},
		{
			name: "bookings spilling over the window edges",
			bookings: []*Booking{
				bk("a", 7, 10, StatusConfirmed),
				bk("b", 17, 20, StatusPending),
			},
			want: []Interval{iv(10, 17)},
		},
		{
			name: "back to back bookings leave no gap",
			bookings: []*Booking{
				bk("a", 10, 11, StatusConfirmed),
				bk("b", 11, 12, StatusConfirmed),
			},
			want: []Interval{iv(9, 10), iv(12, 18)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FreeSlots(window, tt.bookings))
		})
	}
}

func TestEngineUsesStorageSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, b := range []*Booking{
		bk("", 10, 11, StatusConfirmed),
		bk("", 12, 13, StatusCancelled),
	} {
		require.NoError(t, repo.Create(ctx, b))
	}
	other := bk("", 10, 11, StatusConfirmed)
	other.ResourceID = "room-b"
	require.NoError(t, repo.Create(ctx, other))

	engine := NewEngine(repo)

	tests := []struct {
		name     string
		resource resource.ID
		window   Interval
		want     bool
	}{
		{"conflict on same resource", "room-a", iv(10, 11), false},
		{"cancelled slot is free", "room-a", iv(12, 13), true},
		{"other resource is independent", "room-c", iv(10, 11), true},
		{"adjacent slot", "room-a", iv(11, 12), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := engine.IsAvailable(ctx, tt.resource, tt.window.Start, tt.window.End, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var parsed Status
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}

	parsed, err := ParseStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, parsed)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = Status(0).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.False(t, Status(0).IsActive())
}
