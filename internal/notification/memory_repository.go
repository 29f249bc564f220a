package notification

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items []Notification
}

// NewMemoryRepository returns a Repository kept in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *n)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.items {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Notification
	for _, n := range r.items {
		if filter.BookingID != "" && n.BookingID != filter.BookingID {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		n := n
		matched = append(matched, &n)
	}

	// Newest first; insertion order breaks ties.
	slices.Reverse(matched)
	slices.SortStableFunc(matched, func(a, b *Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := min(start+pageSize, len(matched))
	return matched[start:end], len(matched), nil
}

