package analyticssvc

import (
	"context"
	"time"

	analyticsrepo "townbook/repository/analytics"
)

const defaultWindow = 30 * 24 * time.Hour

type Overview struct {
	Stats        *analyticsrepo.LibraryStats `json:"stats"`
	PopularBooks []analyticsrepo.UsageRow    `json:"popular_books"`
	PopularRooms []analyticsrepo.UsageRow    `json:"popular_rooms"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
	Trends(ctx context.Context, from, to time.Time) ([]analyticsrepo.TrendRow, error)
	ResourceUsage(ctx context.Context, from, to time.Time) ([]analyticsrepo.UsageRow, []analyticsrepo.UsageRow, error)
	UserActivity(ctx context.Context, from, to time.Time) ([]analyticsrepo.UserActivityRow, error)
}

type service struct{ r analyticsrepo.Repo }

func New(r analyticsrepo.Repo) Service { return &service{r: r} }

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	stats, err := s.r.Stats(ctx)
	if err != nil {
		return nil, err
	}
	to := time.Now().UTC()
	from := to.Add(-defaultWindow)
	books, err := s.r.BookUsage(ctx, from, to, 5)
	if err != nil {
		return nil, err
	}
	rooms, err := s.r.RoomUsage(ctx, from, to, 5)
	if err != nil {
		return nil, err
	}
	return &Overview{Stats: stats, PopularBooks: books, PopularRooms: rooms}, nil
}

func (s *service) Trends(ctx context.Context, from, to time.Time) ([]analyticsrepo.TrendRow, error) {
	from, to = window(from, to)
	return s.r.Trends(ctx, from, to)
}

func (s *service) ResourceUsage(ctx context.Context, from, to time.Time) ([]analyticsrepo.UsageRow, []analyticsrepo.UsageRow, error) {
	from, to = window(from, to)
	books, err := s.r.BookUsage(ctx, from, to, 10)
	if err != nil {
		return nil, nil, err
	}
	rooms, err := s.r.RoomUsage(ctx, from, to, 10)
	if err != nil {
		return nil, nil, err
	}
	return books, rooms, nil
}

func (s *service) UserActivity(ctx context.Context, from, to time.Time) ([]analyticsrepo.UserActivityRow, error) {
	from, to = window(from, to)
	return s.r.UserActivity(ctx, from, to, 10)
}

func window(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	return from, to
}
