package reservation

import (
	"context"
	"database/sql"

	"townbook/model"
	"townbook/util/schedule"
)

type Repo interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	ByID(ctx context.Context, id int64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error)
	ApprovedRoomSlots(ctx context.Context, tx *sql.Tx, roomID, excludeID int64) ([]schedule.Slot, error)
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	RoomByID(ctx context.Context, id int64) (*model.Room, error)
	UserNameByID(ctx context.Context, id int64) (string, error)

	ReservationForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	Insert(ctx context.Context, tx *sql.Tx, r *model.Reservation) error
	MarkDecided(ctx context.Context, tx *sql.Tx, id, approverID int64, to model.ReservationStatus) (bool, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	DecrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	IncrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	AttachToItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error
	DetachFromItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repo) q(tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *repo) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const reservationCols = `
	id, user_id, type, item_id, status,
	start_date, end_date, start_time, end_time,
	notes, approved_by, approved_at, returned_at, created_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	res := &model.Reservation{}
	err := row.Scan(
		&res.ID, &res.UserID, &res.Type, &res.ItemID, &res.Status,
		&res.StartDate, &res.EndDate, &res.StartTime, &res.EndTime,
		&res.Notes, &res.ApprovedBy, &res.ApprovedAt, &res.ReturnedAt, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Reservation, error) {
	const q = `SELECT` + reservationCols + `
		FROM reservations
		WHERE id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	const q = `SELECT` + reservationCols + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *repo) ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error) {
	const q = `SELECT` + reservationCols + `
		FROM reservations
		WHERE type = $1 AND item_id = $2
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, typ, itemID)
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *repo) ApprovedRoomSlots(ctx context.Context, tx *sql.Tx, roomID, excludeID int64) ([]schedule.Slot, error) {
	const q = `
		SELECT start_date, end_date,
		       COALESCE(start_time, '00:00'), COALESCE(end_time, '23:59')
		FROM reservations
		WHERE item_id = $1 AND type = 'Room' AND status = 'Approved' AND id <> $2`
	rows, err := r.q(tx).QueryContext(ctx, q, roomID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Slot
	for rows.Next() {
		var s schedule.Slot
		if err := rows.Scan(&s.StartDate, &s.EndDate, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repo) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author, total_copies, available_copies
		FROM books
		WHERE id = $1`
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.TotalCopies, &b.AvailableCopies)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) RoomByID(ctx context.Context, id int64) (*model.Room, error) {
	const q = `
		SELECT id, name, capacity, location
		FROM rooms
		WHERE id = $1`
	rm := &model.Room{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Location)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *repo) UserNameByID(ctx context.Context, id int64) (string, error) {
	const q = `SELECT name FROM users WHERE id = $1`
	var name string
	err := r.db.QueryRowContext(ctx, q, id).Scan(&name)
	return name, err
}

func (r *repo) ReservationForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	const q = `SELECT` + reservationCols + `
		FROM reservations
		WHERE id = $1
		FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations
			(user_id, type, item_id, status, start_date, end_date, start_time, end_time, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		res.UserID, res.Type, res.ItemID, res.Status,
		res.StartDate, res.EndDate, res.StartTime, res.EndTime, res.Notes,
	).Scan(&res.ID, &res.CreatedAt)
}

func (r *repo) MarkDecided(ctx context.Context, tx *sql.Tx, id, approverID int64, to model.ReservationStatus) (bool, error) {
	// Guard on Pending so a concurrent decision cannot be overwritten.
	const q = `
		UPDATE reservations
		SET status = $2,
			approved_by = $3,
			approved_at = NOW()
		WHERE id = $1
		AND status = 'Pending'`
	return r.affected(tx.ExecContext(ctx, q, id, to, approverID))
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = $3
		WHERE id = $1
		AND status = $2`
	return r.affected(tx.ExecContext(ctx, q, id, from, to))
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = 'Returned',
			returned_at = NOW()
		WHERE id = $1
		AND status = 'Checked Out'`
	return r.affected(tx.ExecContext(ctx, q, id))
}

func (r *repo) DecrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	// Guard: never below zero.
	const q = `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1
		AND available_copies > 0`
	return r.affected(tx.ExecContext(ctx, q, bookID))
}

func (r *repo) IncrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	// Guard: never above total_copies.
	const q = `
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE id = $1
		AND available_copies < total_copies`
	return r.affected(tx.ExecContext(ctx, q, bookID))
}

func (r *repo) AttachToItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error {
	q := `UPDATE books SET reservations = array_append(reservations, $2) WHERE id = $1`
	if typ == model.ItemRoom {
		q = `UPDATE rooms SET reservations = array_append(reservations, $2) WHERE id = $1`
	}
	_, err := tx.ExecContext(ctx, q, itemID, resID)
	return err
}

func (r *repo) DetachFromItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error {
	q := `UPDATE books SET reservations = array_remove(reservations, $2) WHERE id = $1`
	if typ == model.ItemRoom {
		q = `UPDATE rooms SET reservations = array_remove(reservations, $2) WHERE id = $1`
	}
	_, err := tx.ExecContext(ctx, q, itemID, resID)
	return err
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `DELETE FROM reservations WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}
