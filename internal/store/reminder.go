package store

import (
	"context"

	"personal-calendar/internal/model"
)

// ListDueReminders compares stored text directly; every row is written in
// model.TimestampLayout so lexical order is chronological.
func (s *Postgres) ListDueReminders(ctx context.Context, now string) ([]model.DueReminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.title, e.start_time, u.email
		 FROM events e
		 JOIN users u ON e.user_id = u.id
		 WHERE NOT e.is_reminded AND e.start_time <= $1
		 ORDER BY e.start_time, e.id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DueReminder
	for rows.Next() {
		var r model.DueReminder
		if err := rows.Scan(&r.EventID, &r.Title, &r.StartTime, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkReminded(ctx context.Context, eventID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE events SET is_reminded = TRUE WHERE id = $1`, eventID)
	return err
}
