// service/book/bookService_test.go
package booksvc_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"townbook/model"
	booksvc "townbook/service/book"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) error
	updateFn func(ctx context.Context, b *model.Book) (bool, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)
	byIDFn   func(ctx context.Context, id int64) (*model.Book, error)
	listFn   func(ctx context.Context) ([]model.Book, error)
	searchFn func(ctx context.Context, query string) ([]model.Book, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) Update(ctx context.Context, b *model.Book) (bool, error) {
	return m.updateFn(ctx, b)
}
func (m *repoMock) Delete(ctx context.Context, id int64) (bool, error) { return m.deleteFn(ctx, id) }
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context) ([]model.Book, error) { return m.listFn(ctx) }
func (m *repoMock) Search(ctx context.Context, query string) ([]model.Book, error) {
	return m.searchFn(ctx, query)
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	cases := []booksvc.CreateInput{
		{Author: "a", Location: "A1", TotalCopies: 1},             // no title
		{Title: "t", Location: "A1", TotalCopies: 1},              // no author
		{Title: "t", Author: "a", TotalCopies: 1},                 // no location
		{Title: "t", Author: "a", Location: "A1", TotalCopies: 0}, // no copies
	}
	for _, in := range cases {
		if _, err := s.Create(context.Background(), in, 1); !errors.Is(err, booksvc.ErrBadInput) {
			t.Fatalf("Create(%+v) err = %v; want ErrBadInput", in, err)
		}
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			if b.Title != "Dune" || b.Author != "Frank Herbert" {
				return errors.New("bad args")
			}
			b.ID = 42
			return nil
		},
	}
	s := booksvc.New(m)

	b, err := s.Create(context.Background(), booksvc.CreateInput{
		Title:       "  Dune ",
		Author:      "Frank Herbert",
		Location:    "SF-12",
		TotalCopies: 3,
	}, 7)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if b.ID != 42 || b.Genre != "Other" || b.AvailableCopies != 3 || b.Status != model.BookAvailable {
		t.Fatalf("unexpected book: %+v", b)
	}
	if b.AddedBy != 7 {
		t.Fatalf("AddedBy = %d; want 7", b.AddedBy)
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, sql.ErrNoRows },
	}
	s := booksvc.New(m)
	if _, err := s.Detail(context.Background(), 99); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("Detail err = %v; want ErrNotFound", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Old", Author: "Keep Me", Genre: "Fiction", Location: "A1"}, nil
		},
		updateFn: func(ctx context.Context, b *model.Book) (bool, error) { return true, nil },
	}
	s := booksvc.New(m)

	b, err := s.Update(context.Background(), 5, booksvc.CreateInput{Title: "New Title"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if b.Title != "New Title" || b.Author != "Keep Me" || b.Genre != "Fiction" {
		t.Fatalf("unexpected book after update: %+v", b)
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	s := booksvc.New(m)
	if err := s.Delete(context.Background(), 123); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("Delete err = %v; want ErrNotFound", err)
	}
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context) ([]model.Book, error) { return nil, nil },
		searchFn: func(ctx context.Context, query string) ([]model.Book, error) {
			if query != "dune" {
				return nil, errors.New("query not forwarded")
			}
			return []model.Book{{ID: 1}}, nil
		},
	}
	s := booksvc.New(m)

	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	rows, err := s.Search(context.Background(), "dune")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Search got %v %v; want one row", rows, err)
	}
}
