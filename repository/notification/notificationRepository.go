package notification

import (
	"context"
	"database/sql"

	"townbook/model"
)

type Repo interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	ByID(ctx context.Context, userID, id int64) (*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) (bool, error)
	UserIDsByRole(ctx context.Context, role model.Role) ([]int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, n *model.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, title, message, type, related_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		n.UserID, n.Title, n.Message, n.Type, n.RelatedID,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	const q = `
		SELECT id, user_id, title, message, type, read, related_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.RelatedID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, userID, id int64) (*model.Notification, error) {
	const q = `
		SELECT id, user_id, title, message, type, read, related_id, created_at
		FROM notifications
		WHERE id = $1 AND user_id = $2`
	n := &model.Notification{}
	err := r.db.QueryRowContext(ctx, q, id, userID).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.RelatedID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repo) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	const q = `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	const q = `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	var n int64
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

func (r *repo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) UserIDsByRole(ctx context.Context, role model.Role) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
