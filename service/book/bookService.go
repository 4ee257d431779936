package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"townbook/model"
	bookrepo "townbook/repository/book"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrISBNTaken = errors.New("isbn already registered")
	ErrBadInput  = errors.New("invalid payload")
)

type CreateInput struct {
	Title       string
	Author      string
	ISBN        *string
	Description *string
	Genre       string
	CoverImage  *string
	TotalCopies int64
	Location    string
}

type Service interface {
	Create(ctx context.Context, in CreateInput, addedBy int64) (*model.Book, error)
	Update(ctx context.Context, id int64, in CreateInput) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, query string) ([]model.Book, error)
}

type service struct{ r bookrepo.Repo }

func New(r bookrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, in CreateInput, addedBy int64) (*model.Book, error) {
	if in.Title == "" || in.Author == "" || in.Location == "" || in.TotalCopies < 1 {
		return nil, ErrBadInput
	}
	b := &model.Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            in.ISBN,
		Description:     in.Description,
		Genre:           in.Genre,
		CoverImage:      in.CoverImage,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		Status:          model.BookAvailable,
		Location:        in.Location,
		AddedBy:         addedBy,
	}
	if b.Genre == "" {
		b.Genre = "Other"
	}
	if err := s.r.Create(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrISBNTaken
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id int64, in CreateInput) (*model.Book, error) {
	b, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		b.Title = strings.TrimSpace(in.Title)
	}
	if in.Author != "" {
		b.Author = strings.TrimSpace(in.Author)
	}
	if in.Genre != "" {
		b.Genre = in.Genre
	}
	if in.Location != "" {
		b.Location = in.Location
	}
	if in.ISBN != nil {
		b.ISBN = in.ISBN
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.CoverImage != nil {
		b.CoverImage = in.CoverImage
	}
	ok, err := s.r.Update(ctx, b)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrISBNTaken
		}
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
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

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Search(ctx context.Context, query string) ([]model.Book, error) {
	return s.r.Search(ctx, query)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
