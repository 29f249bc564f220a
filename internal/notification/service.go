package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// ResourceLookup resolves the resource snapshot attached to a notification.
type ResourceLookup interface {
	GetByID(ctx context.Context, id resource.ID) (*resource.Resource, error)
}

type Service interface {
	// Record stores a notification for ev. A missing resource yields a nil snapshot.
	Record(ctx context.Context, ev Event) (*Notification, error)
	// Notify records ev and discards the stored notification.
	Notify(ctx context.Context, ev Event) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*Notification, error)
}

type service struct {
	repo      Repository
	resources ResourceLookup
	log       zerolog.Logger
}

func NewService(repo Repository, resources ResourceLookup, log zerolog.Logger) Service {
	return &service{
		repo:      repo,
		resources: resources,
		log:       log.With().Str("module", "notification").Logger(),
	}
}

func (s *service) Record(ctx context.Context, ev Event) (*Notification, error) {
	n := &Notification{
		BookingID:  ev.BookingID,
		Title:      ev.Title,
		Type:       ev.Type,
		StartAt:    ev.StartAt,
		EndAt:      ev.EndAt,
		ResourceID: ev.ResourceID,
	}

	res, err := s.resources.GetByID(ctx, ev.ResourceID)
	switch {
	case err == nil:
		n.Resource = NewSnapshot(res)
	case errors.Is(err, resource.ErrNotFound):
		s.log.Debug().Str("resource_id", string(ev.ResourceID)).Msg("resource missing, recording without snapshot")
	default:
		return nil, fmt.Errorf("lookup resource for notification failed: %w", err)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("notification_id", n.ID).
		Str("booking_id", n.BookingID).
		Str("type", string(n.Type)).
		Msg(n.Title)
	return n, nil
}

func (s *service) Notify(ctx context.Context, ev Event) error {
	_, err := s.Record(ctx, ev)
	return err
}

func (s *service) GetByID(ctx context.Context, id string) (*Notification, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	return s.repo.List(ctx, filter)
}

// ListByBooking returns every notification of a booking, newest first.
func (s *service) ListByBooking(ctx context.Context, bookingID string) ([]*Notification, error) {
	var all []*Notification
	filter := Filter{BookingID: bookingID, Page: 1, PageSize: 100}
	for {
		page, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Page++
	}
}
