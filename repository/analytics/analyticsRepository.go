package analytics

import (
	"context"
	"database/sql"
	"time"
)

type LibraryStats struct {
	TotalBooks         int64 `json:"total_books"`
	TotalRooms         int64 `json:"total_rooms"`
	TotalUsers         int64 `json:"total_users"`
	ActiveReservations int64 `json:"active_reservations"`
}

type TrendRow struct {
	Day   time.Time `json:"day"`
	Total int64     `json:"total"`
	Books int64     `json:"books"`
	Rooms int64     `json:"rooms"`
}

type UsageRow struct {
	ItemID       int64   `json:"item_id"`
	Name         string  `json:"name"`
	Reservations int64   `json:"reservations"`
	AvgDays      float64 `json:"avg_days"`
}

type UserActivityRow struct {
	UserID             int64  `json:"user_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	TotalReservations  int64  `json:"total_reservations"`
	ActiveReservations int64  `json:"active_reservations"`
}

type Repo interface {
	Stats(ctx context.Context) (*LibraryStats, error)
	Trends(ctx context.Context, from, to time.Time) ([]TrendRow, error)
	BookUsage(ctx context.Context, from, to time.Time, limit int) ([]UsageRow, error)
	RoomUsage(ctx context.Context, from, to time.Time, limit int) ([]UsageRow, error)
	UserActivity(ctx context.Context, from, to time.Time, limit int) ([]UserActivityRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Stats(ctx context.Context) (*LibraryStats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM rooms),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM reservations
			 WHERE status IN ('Pending','Approved','Checked Out'))`
	s := &LibraryStats{}
	err := r.db.QueryRowContext(ctx, q).
		Scan(&s.TotalBooks, &s.TotalRooms, &s.TotalUsers, &s.ActiveReservations)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) Trends(ctx context.Context, from, to time.Time) ([]TrendRow, error) {
	const q = `
		SELECT date_trunc('day', created_at) AS day,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE type = 'Book') AS books,
			COUNT(*) FILTER (WHERE type = 'Room') AS rooms
		FROM reservations
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY day
		ORDER BY day`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendRow
	for rows.Next() {
		var t TrendRow
		if err := rows.Scan(&t.Day, &t.Total, &t.Books, &t.Rooms); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repo) BookUsage(ctx context.Context, from, to time.Time, limit int) ([]UsageRow, error) {
	const q = `
		SELECT b.id, b.title,
			COUNT(r.*) AS reservations,
			COALESCE(AVG(EXTRACT(EPOCH FROM r.end_date - r.start_date) / 86400), 0) AS avg_days
		FROM reservations r
		JOIN books b ON b.id = r.item_id
		WHERE r.type = 'Book' AND r.created_at BETWEEN $1 AND $2
		GROUP BY b.id
		ORDER BY reservations DESC
		LIMIT $3`
	return r.usage(ctx, q, from, to, limit)
}

func (r *repo) RoomUsage(ctx context.Context, from, to time.Time, limit int) ([]UsageRow, error) {
	const q = `
		SELECT rm.id, rm.name,
			COUNT(r.*) AS reservations,
			COALESCE(AVG(EXTRACT(EPOCH FROM r.end_date - r.start_date) / 86400), 0) AS avg_days
		FROM reservations r
		JOIN rooms rm ON rm.id = r.item_id
		WHERE r.type = 'Room' AND r.created_at BETWEEN $1 AND $2
		GROUP BY rm.id
		ORDER BY reservations DESC
		LIMIT $3`
	return r.usage(ctx, q, from, to, limit)
}

func (r *repo) usage(ctx context.Context, q string, from, to time.Time, limit int) ([]UsageRow, error) {
	rows, err := r.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.ItemID, &u.Name, &u.Reservations, &u.AvgDays); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repo) UserActivity(ctx context.Context, from, to time.Time, limit int) ([]UserActivityRow, error) {
	const q = `
		SELECT u.id, u.name, u.email,
			COUNT(r.*) AS total,
			COUNT(r.*) FILTER (WHERE r.status IN ('Pending','Approved','Checked Out')) AS active
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		WHERE r.created_at BETWEEN $1 AND $2
		GROUP BY u.id
		ORDER BY total DESC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserActivityRow
	for rows.Next() {
		var u UserActivityRow
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.TotalReservations, &u.ActiveReservations); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
