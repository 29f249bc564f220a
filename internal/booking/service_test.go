package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

type stubResources map[resource.ID]*resource.Resource

func (s stubResources) GetByID(_ context.Context, id resource.ID) (*resource.Resource, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, resource.ErrNotFound
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) types() []notification.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.EventType, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc      Service
	repo     Repository
	notifier *recordingNotifier
}

func newFixture() *fixture {
	repo := NewMemoryRepository()
	resources := stubResources{
		"room-a": {ID: "room-a", Name: "Meeting Room A", Capacity: 8, Available: true},
		"room-b": {ID: "room-b", Name: "Meeting Room B", Capacity: 4, Available: true},
		"closed": {ID: "closed", Name: "Renovation", Capacity: 2, Available: false},
	}
	notifier := &recordingNotifier{}
	return &fixture{
		svc:      NewService(repo, resources, notifier, logger.Nop()),
		repo:     repo,
		notifier: notifier,
	}
}

func candidate(resourceID resource.ID, from, to int) Booking {
	return Booking{
		ResourceID:    resourceID,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		StartTime:     at(from, 0),
		EndTime:       at(to, 0),
	}
}

func updateFrom(b *Booking) UpdateRequest {
	return UpdateRequest{
		ResourceID:    b.ResourceID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status,
		Notes:         b.Notes,
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to pending and round trips", func(t *testing.T) {
		f := newFixture()
		created, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, StatusPending, created.Status)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := f.svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		assert.Equal(t, []notification.EventType{notification.TypeCreated}, f.notifier.types())
	})

	t.Run("rejects preassigned id", func(t *testing.T) {
		f := newFixture()
		c := candidate("room-a", 10, 11)
		c.ID = "already-set"
		_, err := f.svc.Create(ctx, c)
		assert.ErrorIs(t, err, ErrIdentityAssigned)
	})

	t.Run("rejects inverted and empty intervals", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("room-a", 11, 10))
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
		_, err = f.svc.Create(ctx, candidate("room-a", 10, 10))
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))

		list, total, err := f.svc.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Zero(t, total)
	})

	t.Run("unknown or unavailable resource", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("missing", 10, 11))
		assert.ErrorIs(t, err, ErrResourceNotFound)
		_, err = f.svc.Create(ctx, candidate("closed", 10, 11))
		assert.ErrorIs(t, err, ErrResourceUnavailable)
	})

	t.Run("strict overlap conflicts, adjacency does not", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, candidate("room-a", 10, 12))
		assert.ErrorIs(t, err, ErrTimeConflict)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))

		_, err = f.svc.Create(ctx, candidate("room-a", 11, 12))
		assert.NoError(t, err)
		_, err = f.svc.Create(ctx, candidate("room-a", 9, 10))
		assert.NoError(t, err)
	})

	t.Run("other resources are independent", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, candidate("room-b", 10, 11))
		assert.NoError(t, err)
	})

	t.Run("cancelled booking never blocks", func(t *testing.T) {
		f := newFixture()
		first, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, first.ID)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, candidate("room-a", 10, 11))
		assert.NoError(t, err)
	})

	t.Run("notifier failure keeps the booking", func(t *testing.T) {
		f := newFixture()
		f.notifier.err = errors.New("mail server down")

		created, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		exists, err := f.repo.Exists(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestConcurrentCreateSameInterval(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	const workers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrTimeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("unchanged interval does not conflict with itself", func(t *testing.T) {
		f := newFixture()
		b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		req := updateFrom(b)
		req.Status = StatusConfirmed
		req.Notes = "projector needed"
		updated, err := f.svc.Update(ctx, b.ID, req)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, updated.Status)
		assert.Equal(t, "projector needed", updated.Notes)
		assert.Equal(t, b.CreatedAt, updated.CreatedAt)
	})

	t.Run("moving within its own slot excludes itself", func(t *testing.T) {
		f := newFixture()
		b, err := f.svc.Create(ctx, candidate("room-a", 10, 12))
		require.NoError(t, err)

		req := updateFrom(b)
		req.StartTime = at(11, 0)
		req.EndTime = at(13, 0)
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.NoError(t, err)
	})

	t.Run("moving into a conflict leaves the record unchanged", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
		b, err := f.svc.Create(ctx, candidate("room-a", 12, 13))
		require.NoError(t, err)

		req := updateFrom(b)
		req.StartTime = at(10, 30)
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.ErrorIs(t, err, ErrTimeConflict)

		stored, err := f.svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b, stored)
	})

	t.Run("inverted interval leaves the record unchanged", func(t *testing.T) {
		f := newFixture()
		b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		req := updateFrom(b)
		req.EndTime = at(9, 0)
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)

		stored, err := f.svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b, stored)
	})

	t.Run("moving to another resource checks that resource", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, candidate("room-b", 10, 11))
		require.NoError(t, err)
		b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		req := updateFrom(b)
		req.ResourceID = "room-b"
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.ErrorIs(t, err, ErrTimeConflict)

		req.ResourceID = "closed"
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.ErrorIs(t, err, ErrResourceUnavailable)
	})

	t.Run("reactivating a cancelled booking is conflict checked", func(t *testing.T) {
		f := newFixture()
		b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)

		req := updateFrom(b)
		req.Status = StatusConfirmed
		_, err = f.svc.Update(ctx, b.ID, req)
		assert.ErrorIs(t, err, ErrTimeConflict)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Update(ctx, "missing", UpdateRequest{ResourceID: "room-a", StartTime: at(9, 0), EndTime: at(10, 0)})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)

	first, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)

	second, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)

	_, err = f.svc.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []notification.EventType{
		notification.TypeCreated,
		notification.TypeCancelled,
		notification.TypeCancelled,
	}, f.notifier.types())
}

func TestDeleteBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	b, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	_, err = f.svc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, b.ID), ErrNotFound)
}

func TestCheckAvailabilityAndFreeSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)

	ok, err := f.svc.CheckAvailability(ctx, "room-a", at(10, 30), at(11, 30))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CheckAvailability(ctx, "room-a", at(11, 0), at(12, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.CheckAvailability(ctx, "room-a", at(12, 0), at(11, 0))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	slots, err := f.svc.FreeSlots(ctx, "room-a", iv(9, 12))
	require.NoError(t, err)
	assert.Equal(t, []Interval{iv(9, 10), iv(11, 12)}, slots)

	_, err = f.svc.FreeSlots(ctx, "missing", iv(9, 12))
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)
	c := candidate("room-a", 14, 15)
	c.CustomerEmail = "grace@example.com"
	c.Status = StatusConfirmed
	_, err = f.svc.Create(ctx, c)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, candidate("room-b", 10, 11))
	require.NoError(t, err)

	from, to := at(9, 0), at(12, 0)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"by resource", Filter{ResourceID: "room-a"}, 2},
		{"by status", Filter{Status: StatusConfirmed}, 1},
		{"by email", Filter{CustomerEmail: "grace@example.com"}, 1},
		{"by time range", Filter{From: &from, To: &to}, 2},
		{"paged", Filter{Page: 2, PageSize: 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, _, err := f.svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}

	list, total, err := f.svc.List(ctx, Filter{ResourceID: "room-a", SortBy: "start_time", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, a.ID, list[0].ID)

	_, _, err = f.svc.List(ctx, Filter{From: &to, To: &from})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestTimezonesCompareByInstant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)

	tokyo := time.FixedZone("JST", 9*60*60)
	c := Booking{
		ResourceID:    "room-a",
		CustomerName:  "Kenji",
		CustomerEmail: "kenji@example.com",
		StartTime:     at(10, 30).In(tokyo),
		EndTime:       at(11, 30).In(tokyo),
	}
	_, err = f.svc.Create(ctx, c)
	assert.ErrorIs(t, err, ErrTimeConflict)
}

// interleavingRepo runs beforeLock once, right before the next resource lock is taken.
type interleavingRepo struct {
	Repository
	beforeLock func()
}

func (r *interleavingRepo) WithResourceLock(ctx context.Context, resourceID resource.ID, fn func(ctx context.Context, repo Repository) error) error {
	if hook := r.beforeLock; hook != nil {
		r.beforeLock = nil
		hook()
	}
	return r.Repository.WithResourceLock(ctx, resourceID, fn)
}

func TestUpdateSeesChangesMadeBeforeLock(t *testing.T) {
	ctx := context.Background()
	repo := &interleavingRepo{Repository: NewMemoryRepository()}
	resources := stubResources{
		"room-a": {ID: "room-a", Name: "Meeting Room A", Capacity: 8, Available: true},
	}
	svc := NewService(repo, resources, nil, logger.Nop())

	x, err := svc.Create(ctx, candidate("room-a", 10, 11))
	require.NoError(t, err)

	repo.beforeLock = func() {
		_, err := svc.Cancel(ctx, x.ID)
		require.NoError(t, err)
		_, err = svc.Create(ctx, candidate("room-a", 10, 11))
		require.NoError(t, err)
	}

	req := updateFrom(x)
	req.Status = 0
	req.Notes = "late arrival"
	updated, err := svc.Update(ctx, x.ID, req)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, "late arrival", updated.Notes)

	active, err := repo.FindOverlapping(ctx, "room-a", at(10, 0), at(11, 0), ActiveStatuses)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
