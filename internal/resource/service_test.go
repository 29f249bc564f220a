package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
)

func newTestService() Service {
	return NewService(NewMemoryRepository(), logger.Nop())
}

func ptr[T any](v T) *T { return &v }

func TestCreateResource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	t.Run("defaults to available", func(t *testing.T) {
		res, err := svc.Create(ctx, CreateRequest{Name: "  Meeting Room A ", Capacity: 10})
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "Meeting Room A", res.Name)
		assert.True(t, res.Available)
		assert.False(t, res.CreatedAt.IsZero())
	})

	t.Run("explicitly unavailable", func(t *testing.T) {
		res, err := svc.Create(ctx, CreateRequest{Name: "Studio", Capacity: 5, Available: ptr(false)})
		require.NoError(t, err)
		assert.False(t, res.Available)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{Name: "   ", Capacity: 1})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("non-positive capacity", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{Name: "Lab", Capacity: 0})
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})
}

func TestUpdateResource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	res, err := svc.Create(ctx, CreateRequest{Name: "Lab 1", Description: "Research lab", Capacity: 4})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, res.ID, UpdateRequest{
		Capacity:  ptr(6),
		Available: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lab 1", updated.Name)
	assert.Equal(t, "Research lab", updated.Description)
	assert.Equal(t, 6, updated.Capacity)
	assert.False(t, updated.Available)
	assert.Equal(t, res.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, res.ID, UpdateRequest{Name: ptr("")})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Update(ctx, res.ID, UpdateRequest{Capacity: ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = svc.Update(ctx, ID("00000000-0000-0000-0000-000000000000"), UpdateRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteResource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	res, err := svc.Create(ctx, CreateRequest{Name: "Projector", Capacity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, res.ID))

	_, err = svc.GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, res.ID), ErrNotFound)
}

func TestListResources(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	for _, req := range []CreateRequest{
		{Name: "Meeting Room A", Capacity: 10},
		{Name: "Meeting Room B", Capacity: 6},
		{Name: "Lab 1", Capacity: 4},
		{Name: "Studio", Capacity: 5, Available: ptr(false)},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		filter    Filter
		wantNames []string
		wantTotal int
	}{
		{
			name:      "search is case-insensitive",
			filter:    Filter{Search: "meeting", SortBy: "name", SortOrder: "asc"},
			wantNames: []string{"Meeting Room A", "Meeting Room B"},
			wantTotal: 2,
		},
		{
			name:      "only available",
			filter:    Filter{Available: ptr(true), SortBy: "capacity", SortOrder: "desc"},
			wantNames: []string{"Meeting Room A", "Meeting Room B", "Lab 1"},
			wantTotal: 3,
		},
		{
			name:      "pagination",
			filter:    Filter{SortBy: "name", SortOrder: "asc", Page: 2, PageSize: 3},
			wantNames: []string{"Studio"},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			names := make([]string, len(list))
			for i, r := range list {
				names[i] = r.Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}
