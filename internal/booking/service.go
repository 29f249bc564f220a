package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// ResourceLookup resolves the resource a booking refers to.
type ResourceLookup interface {
	GetByID(ctx context.Context, id resource.ID) (*resource.Resource, error)
}

// Notifier is told about every successful create, update and cancel.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) error
}

// UpdateRequest replaces every mutable field of a booking.
// A zero Status keeps the stored status.
type UpdateRequest struct {
	ResourceID    resource.ID
	CustomerName  string
	CustomerEmail string
	StartTime     time.Time
	EndTime       time.Time
	Status        Status
	Notes         string
}

type Service interface {
	Create(ctx context.Context, candidate Booking) (*Booking, error)
	GetByID(ctx context.Context, id ID) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id ID, req UpdateRequest) (*Booking, error)
	Cancel(ctx context.Context, id ID) (*Booking, error)
	Delete(ctx context.Context, id ID) error
	CheckAvailability(ctx context.Context, resourceID resource.ID, start, end time.Time) (bool, error)
	FreeSlots(ctx context.Context, resourceID resource.ID, window Interval) ([]Interval, error)
}

type service struct {
	repo      Repository
	resources ResourceLookup
	notifier  Notifier
	log       zerolog.Logger
}

func NewService(repo Repository, resources ResourceLookup, notifier Notifier, log zerolog.Logger) Service {
	return &service{
		repo:      repo,
		resources: resources,
		notifier:  notifier,
		log:       log.With().Str("module", "booking").Logger(),
	}
}

func (s *service) Create(ctx context.Context, candidate Booking) (*Booking, error) {
	// 1. Identity is assigned by storage
	if candidate.ID != "" {
		return nil, ErrIdentityAssigned
	}

	// 2. Validate Time Range
	if !candidate.Interval().Valid() {
		return nil, ErrInvalidTimeRange
	}
	if candidate.Status == 0 {
		candidate.Status = StatusPending
	}
	if !candidate.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	// 3. Validate Resource
	if err := s.checkResource(ctx, candidate.ResourceID); err != nil {
		return nil, err
	}

	// 4. Check and persist under the resource lock
	b := candidate
	err := s.repo.WithResourceLock(ctx, b.ResourceID, func(ctx context.Context, repo Repository) error {
		if b.Status.IsActive() {
			available, err := NewEngine(repo).IsAvailable(ctx, b.ResourceID, b.StartTime, b.EndTime, "")
			if err != nil {
				return err
			}
			if !available {
				return ErrTimeConflict
			}
		}
		return repo.Create(ctx, &b)
	})
	if err != nil {
		if errors.Is(err, ErrTimeConflict) {
			s.log.Info().
				Str("resource_id", string(b.ResourceID)).
				Time("start", b.StartTime).
				Time("end", b.EndTime).
				Msg("booking rejected: time conflict")
		}
		return nil, err
	}

	s.log.Info().Str("booking_id", string(b.ID)).Str("resource_id", string(b.ResourceID)).Msg("booking created")
	s.notify(ctx, &b, notification.TypeCreated, "Booking created")
	return &b, nil
}

func (s *service) GetByID(ctx context.Context, id ID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, 0, ErrInvalidTimeRange
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id ID, req UpdateRequest) (*Booking, error) {
	if req.Status != 0 && !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	// Everything derived from the stored record is computed under the lock of
	// the target resource, so a concurrent cancel or create cannot invalidate it.
	var updated Booking
	err := s.repo.WithResourceLock(ctx, req.ResourceID, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !req.EndTime.After(req.StartTime) {
			return ErrInvalidTimeRange
		}
		status := current.Status
		if req.Status != 0 {
			status = req.Status
		}

		resourceChanged := req.ResourceID != current.ResourceID
		timeChanged := !req.StartTime.Equal(current.StartTime) || !req.EndTime.Equal(current.EndTime)
		reactivated := !current.Status.IsActive() && status.IsActive()

		if resourceChanged {
			if err := s.checkResource(ctx, req.ResourceID); err != nil {
				return err
			}
		}

		if status.IsActive() && (resourceChanged || timeChanged || reactivated) {
			available, err := NewEngine(repo).IsAvailable(ctx, req.ResourceID, req.StartTime, req.EndTime, id)
			if err != nil {
				return err
			}
			if !available {
				return ErrTimeConflict
			}
		}

		updated = *current
		updated.ResourceID = req.ResourceID
		updated.CustomerName = req.CustomerName
		updated.CustomerEmail = req.CustomerEmail
		updated.StartTime = req.StartTime
		updated.EndTime = req.EndTime
		updated.Status = status
		updated.Notes = req.Notes

		return repo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("booking_id", string(id)).Str("status", updated.Status.String()).Msg("booking updated")
	s.notify(ctx, &updated, notification.TypeUpdated, "Booking updated")
	return &updated, nil
}

// Cancel moves a booking to Cancelled. Cancelling twice is not an error.
func (s *service) Cancel(ctx context.Context, id ID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithResourceLock(ctx, b.ResourceID, func(ctx context.Context, repo Repository) error {
		// Re-read so a concurrent update is not overwritten.
		locked, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		locked.Status = StatusCancelled
		if err := repo.Update(ctx, locked); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("booking_id", string(id)).Msg("booking cancelled")
	s.notify(ctx, b, notification.TypeCancelled, "Booking cancelled")
	return b, nil
}

// Delete removes the booking whatever its status.
func (s *service) Delete(ctx context.Context, id ID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("booking_id", string(id)).Msg("booking deleted")
	return nil
}

func (s *service) CheckAvailability(ctx context.Context, resourceID resource.ID, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidTimeRange
	}
	return NewEngine(s.repo).IsAvailable(ctx, resourceID, start, end, "")
}

func (s *service) FreeSlots(ctx context.Context, resourceID resource.ID, window Interval) ([]Interval, error) {
	if !window.Valid() {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	busy, err := s.repo.FindOverlapping(ctx, resourceID, window.Start, window.End, ActiveStatuses)
	if err != nil {
		return nil, err
	}
	return FreeSlots(window, busy), nil
}

func (s *service) checkResource(ctx context.Context, id resource.ID) error {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	if !res.Available {
		return ErrResourceUnavailable
	}
	return nil
}

// notify reports a completed mutation. Failures are logged only; the mutation stands.
func (s *service) notify(ctx context.Context, b *Booking, typ notification.EventType, title string) {
	if s.notifier == nil {
		return
	}

	ev := notification.Event{
		BookingID:  string(b.ID),
		Title:      title,
		Type:       typ,
		StartAt:    b.StartTime,
		EndAt:      b.EndTime,
		ResourceID: b.ResourceID,
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("booking_id", string(b.ID)).
			Str("type", string(typ)).
			Msg("failed to send booking notification")
	}
}
