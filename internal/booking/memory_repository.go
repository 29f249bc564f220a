package booking

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items map[ID]Booking

	locksMu sync.Mutex
	locks   map[resource.ID]*sync.Mutex
}

// NewMemoryRepository returns a Repository kept in process memory.
// WithResourceLock uses one mutex per resource.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		items: make(map[ID]Booking),
		locks: make(map[resource.ID]*sync.Mutex),
	}
}

func (r *memoryRepository) Create(_ context.Context, b *Booking) error {
	if !b.Interval().Valid() {
		return ErrInvalidTimeRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	b.ID = ID(uuid.NewString())
	b.CreatedAt = now
	b.UpdatedAt = now
	r.items[b.ID] = *b
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id ID) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *memoryRepository) Exists(_ context.Context, id ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return ok, nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Booking
	for _, b := range r.items {
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != 0 && b.Status != filter.Status {
			continue
		}
		if filter.CustomerEmail != "" && b.CustomerEmail != filter.CustomerEmail {
			continue
		}
		if filter.From != nil && !b.EndTime.After(*filter.From) {
			continue
		}
		if filter.To != nil && !b.StartTime.Before(*filter.To) {
			continue
		}
		b := b
		matched = append(matched, &b)
	}

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	slices.SortFunc(matched, func(a, b *Booking) int {
		var c int
		switch filter.SortBy {
		case "end_time":
			c = a.EndTime.Compare(b.EndTime)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "status":
			c = strings.Compare(a.Status.String(), b.Status.String())
		default:
			c = a.StartTime.Compare(b.StartTime)
		}
		if c == 0 {
			c = strings.Compare(string(a.ID), string(b.ID))
		}
		if desc {
			return -c
		}
		return c
	})

	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (r *memoryRepository) FindOverlapping(_ context.Context, resourceID resource.ID, start, end time.Time, statuses []Status) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	window := Interval{Start: start, End: end}
	var result []*Booking
	for _, b := range r.items {
		if b.ResourceID != resourceID || !slices.Contains(statuses, b.Status) {
			continue
		}
		if !Overlaps(window, b.Interval()) {
			continue
		}
		b := b
		result = append(result, &b)
	}
	slices.SortFunc(result, func(a, b *Booking) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return result, nil
}

func (r *memoryRepository) Update(_ context.Context, b *Booking) error {
	if !b.Interval().Valid() {
		return ErrInvalidTimeRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[b.ID]
	if !ok {
		return ErrNotFound
	}
	b.CreatedAt = stored.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	r.items[b.ID] = *b
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) WithResourceLock(ctx context.Context, resourceID resource.ID, fn func(ctx context.Context, repo Repository) error) error {
	lock := r.resourceLock(resourceID)
	lock.Lock()
	defer lock.Unlock()

	return fn(ctx, r)
}

func (r *memoryRepository) resourceLock(id resource.ID) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
