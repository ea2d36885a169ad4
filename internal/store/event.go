package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"personal-calendar/internal/model"
)

const eventColumns = `id, user_id, title, start_time, COALESCE(end_time, ''), is_all_day,
	COALESCE(repeat_rule, ''), COALESCE(category, ''), COALESCE(notes, ''), is_reminded`

func scanEvent(row pgx.Row) (*model.Event, error) {
	e := &model.Event{}
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.StartTime, &e.EndTime, &e.IsAllDay,
		&e.RepeatRule, &e.Category, &e.Notes, &e.IsReminded)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Postgres) CreateEvent(ctx context.Context, userID int64, in model.EventInput) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (user_id, title, start_time, end_time, is_all_day, repeat_rule, category, notes, is_reminded)
		 VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,NULLIF($8,''),FALSE)
		 RETURNING id`,
		userID, in.Title, in.StartTime, in.EndTime, in.IsAllDay, in.RepeatRule, in.Category, in.Notes,
	).Scan(&id)
	return id, err
}

func (s *Postgres) GetEvent(ctx context.Context, id, userID int64) (*model.Event, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, pgErr(err)
	}
	return e, nil
}

func (s *Postgres) ListEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY start_time, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateEvent(ctx context.Context, id, userID int64, in model.EventInput) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events
		 SET title=$1, start_time=$2, end_time=NULLIF($3,''), is_all_day=$4,
		     repeat_rule=$5, category=$6, notes=NULLIF($7,'')
		 WHERE id=$8 AND user_id=$9`,
		in.Title, in.StartTime, in.EndTime, in.IsAllDay, in.RepeatRule, in.Category, in.Notes, id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteEvent(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
