package roomsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"townbook/model"
	roomrepo "townbook/repository/room"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrBadInput = errors.New("invalid payload")
)

type CreateInput struct {
	Name        string
	Capacity    int64
	Description *string
	Location    string
	Amenities   []string
	Schedule    []model.ScheduleEntry
}

type Service interface {
	Create(ctx context.Context, in CreateInput, addedBy int64) (*model.Room, error)
	Update(ctx context.Context, id int64, in CreateInput) (*model.Room, error)
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
	Search(ctx context.Context, query string) ([]model.Room, error)
	Schedule(ctx context.Context, id int64) ([]model.ScheduleEntry, error)
}

type service struct{ r roomrepo.Repo }

func New(r roomrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, in CreateInput, addedBy int64) (*model.Room, error) {
	if in.Name == "" || in.Location == "" || in.Capacity < 1 {
		return nil, ErrBadInput
	}
	rm := &model.Room{
		Name:        strings.TrimSpace(in.Name),
		Capacity:    in.Capacity,
		Description: in.Description,
		Location:    in.Location,
		Amenities:   in.Amenities,
		Status:      model.RoomAvailable,
		Schedule:    in.Schedule,
		AddedBy:     addedBy,
	}
	if rm.Amenities == nil {
		rm.Amenities = []string{}
	}
	if err := s.r.Create(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

func (s *service) Update(ctx context.Context, id int64, in CreateInput) (*model.Room, error) {
	rm, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		rm.Name = strings.TrimSpace(in.Name)
	}
	if in.Capacity > 0 {
		rm.Capacity = in.Capacity
	}
	if in.Location != "" {
		rm.Location = in.Location
	}
	if in.Description != nil {
		rm.Description = in.Description
	}
	if in.Amenities != nil {
		rm.Amenities = in.Amenities
	}
	if in.Schedule != nil {
		rm.Schedule = in.Schedule
	}
	ok, err := s.r.Update(ctx, rm)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return rm, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Room, error) {
	rm, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rm, nil
}

func (s *service) List(ctx context.Context) ([]model.Room, error) { return s.r.List(ctx) }

func (s *service) Search(ctx context.Context, query string) ([]model.Room, error) {
	return s.r.Search(ctx, query)
}

func (s *service) Schedule(ctx context.Context, id int64) ([]model.ScheduleEntry, error) {
	entries, err := s.r.Schedule(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entries, nil
}
