package book

import (
	"context"
	"database/sql"

	"townbook/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, query string) ([]model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `
	id, title, author, isbn, description, genre, cover_image,
	total_copies, available_copies, status, location, added_by, created_at`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	b := &model.Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Genre, &b.CoverImage,
		&b.TotalCopies, &b.AvailableCopies, &b.Status, &b.Location, &b.AddedBy, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books
			(title, author, isbn, description, genre, cover_image,
			 total_copies, available_copies, status, location, added_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Description, b.Genre, b.CoverImage,
		b.TotalCopies, b.AvailableCopies, b.Status, b.Location, b.AddedBy,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
		UPDATE books
		SET title = $2, author = $3, isbn = $4, description = $5,
			genre = $6, cover_image = $7, location = $8, status = $9
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.ISBN, b.Description,
		b.Genre, b.CoverImage, b.Location, b.Status,
	)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `SELECT` + bookCols + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT` + bookCols + ` FROM books ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

func (r *repo) Search(ctx context.Context, query string) ([]model.Book, error) {
	const q = `SELECT` + bookCols + `
		FROM books
		WHERE title ILIKE '%' || $1 || '%'
		   OR author ILIKE '%' || $1 || '%'
		   OR genre ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, query)
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
