package room

import (
	"context"
	"database/sql"

	"townbook/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Repo interface {
	Create(ctx context.Context, rm *model.Room) error
	Update(ctx context.Context, rm *model.Room) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
	Search(ctx context.Context, query string) ([]model.Room, error)
	Schedule(ctx context.Context, id int64) ([]model.ScheduleEntry, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const roomCols = `
	id, name, capacity, description, location, amenities, status, schedule, added_by, created_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	rm := &model.Room{}
	var schedRaw []byte
	err := row.Scan(
		&rm.ID, &rm.Name, &rm.Capacity, &rm.Description, &rm.Location,
		pq.Array(&rm.Amenities), &rm.Status, &schedRaw, &rm.AddedBy, &rm.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(schedRaw) > 0 {
		if err := json.Unmarshal(schedRaw, &rm.Schedule); err != nil {
			return nil, err
		}
	}
	return rm, nil
}

func (r *repo) Create(ctx context.Context, rm *model.Room) error {
	sched, err := json.Marshal(rm.Schedule)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO rooms
			(name, capacity, description, location, amenities, status, schedule, added_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		rm.Name, rm.Capacity, rm.Description, rm.Location,
		pq.Array(rm.Amenities), rm.Status, sched, rm.AddedBy,
	).Scan(&rm.ID, &rm.CreatedAt)
}

func (r *repo) Update(ctx context.Context, rm *model.Room) (bool, error) {
	sched, err := json.Marshal(rm.Schedule)
	if err != nil {
		return false, err
	}
	const q = `
		UPDATE rooms
		SET name = $2, capacity = $3, description = $4, location = $5,
			amenities = $6, status = $7, schedule = $8
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		rm.ID, rm.Name, rm.Capacity, rm.Description, rm.Location,
		pq.Array(rm.Amenities), rm.Status, sched,
	)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Room, error) {
	const q = `SELECT` + roomCols + ` FROM rooms WHERE id = $1`
	return scanRoom(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT` + roomCols + ` FROM rooms ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

func (r *repo) Search(ctx context.Context, query string) ([]model.Room, error) {
	const q = `SELECT` + roomCols + `
		FROM rooms
		WHERE name ILIKE '%' || $1 || '%'
		   OR location ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, query)
}

func (r *repo) Schedule(ctx context.Context, id int64) ([]model.ScheduleEntry, error) {
	const q = `SELECT schedule FROM rooms WHERE id = $1`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		return nil, err
	}
	var entries []model.ScheduleEntry
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}
