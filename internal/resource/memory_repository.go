package resource

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items map[ID]Resource
}

// NewMemoryRepository returns a Repository kept in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{items: make(map[ID]Resource)}
}

func (r *memoryRepository) Create(_ context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	res.ID = ID(uuid.NewString())
	res.CreatedAt = now
	res.UpdatedAt = now
	r.items[res.ID] = *res
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id ID) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Resource, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []*Resource
	for _, res := range r.items {
		if filter.Available != nil && res.Available != *filter.Available {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(res.Name), search) {
			continue
		}
		res := res
		matched = append(matched, &res)
	}

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	slices.SortFunc(matched, func(a, b *Resource) int {
		var c int
		switch filter.SortBy {
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "capacity":
			c = cmp.Compare(a.Capacity, b.Capacity)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
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

func (r *memoryRepository) Update(_ context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[res.ID]
	if !ok {
		return ErrNotFound
	}
	res.CreatedAt = stored.CreatedAt
	res.UpdatedAt = time.Now().UTC()
	r.items[res.ID] = *res
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
