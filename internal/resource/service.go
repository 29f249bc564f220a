package resource

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type CreateRequest struct {
	Name        string
	Description string
	Capacity    int
	Available   *bool
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Capacity    *int
	Available   *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id ID) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, id ID, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, id ID) error
}

type service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo: repo,
		log:  log.With().Str("module", "resource").Logger(),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	res := &Resource{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Capacity:    req.Capacity,
		Available:   true,
	}
	if req.Available != nil {
		res.Available = *req.Available
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	s.log.Info().Str("resource_id", string(res.ID)).Str("name", res.Name).Msg("resource created")
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id ID) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id ID, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		res.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, ErrInvalidCapacity
		}
		res.Capacity = *req.Capacity
	}
	if req.Available != nil {
		res.Available = *req.Available
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.log.Info().Str("resource_id", string(res.ID)).Msg("resource updated")
	return res, nil
}

// Delete removes the resource only. Bookings that reference it are kept.
func (s *service) Delete(ctx context.Context, id ID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("resource_id", string(id)).Msg("resource deleted")
	return nil
}
