package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// pure Go driver, registers "sqlite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"personal-calendar/internal/model"
)

// SQLite implements Repo using an embedded SQLite database.
type SQLite struct{ db *sql.DB }

// OpenSQLite opens (or creates) the database at path, applies PRAGMAs and
// migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// single writer engine
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	// databases created before reminders existed lack the column
	if err := ensureColumn(ctx, db, "events", "is_reminded", "INTEGER DEFAULT 0"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ensureColumn adds column to table unless it already exists.
func ensureColumn(ctx context.Context, db *sql.DB, table, column, decl string) error {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

func (r *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash,
	)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return model.ErrDuplicateUsername
		}
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *SQLite) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SQLite) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, userID)
	return affectedOne(res, err)
}

const sqliteEventColumns = `id, user_id, title, start_time, COALESCE(end_time, ''), COALESCE(is_all_day, 0),
	COALESCE(repeat_rule, ''), COALESCE(category, ''), COALESCE(notes, ''), COALESCE(is_reminded, 0)`

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEvent(row scanner) (*model.Event, error) {
	var (
		e                model.Event
		allDay, reminded int
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.StartTime, &e.EndTime, &allDay,
		&e.RepeatRule, &e.Category, &e.Notes, &reminded); err != nil {
		return nil, err
	}
	e.IsAllDay = allDay != 0
	e.IsReminded = reminded != 0
	return &e, nil
}

func (r *SQLite) CreateEvent(ctx context.Context, userID int64, in model.EventInput) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (user_id, title, start_time, end_time, is_all_day, repeat_rule, category, notes, is_reminded)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''), 0)`,
		userID, in.Title, in.StartTime, in.EndTime, boolToInt(in.IsAllDay), in.RepeatRule, in.Category, in.Notes,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLite) GetEvent(ctx context.Context, id, userID int64) (*model.Event, error) {
	e, err := scanSQLiteEvent(r.db.QueryRowContext(ctx,
		`SELECT `+sqliteEventColumns+` FROM events WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *SQLite) ListEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteEventColumns+` FROM events WHERE user_id = ? ORDER BY datetime(start_time), id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []model.Event
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *SQLite) UpdateEvent(ctx context.Context, id, userID int64, in model.EventInput) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, start_time = ?, end_time = NULLIF(?, ''), is_all_day = ?,
		    repeat_rule = ?, category = ?, notes = NULLIF(?, '')
		WHERE id = ? AND user_id = ?`,
		in.Title, in.StartTime, in.EndTime, boolToInt(in.IsAllDay), in.RepeatRule, in.Category, in.Notes,
		id, userID,
	)
	return affectedOne(res, err)
}

func (r *SQLite) DeleteEvent(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	return affectedOne(res, err)
}

// ListDueReminders normalizes both sides with datetime() so rows written
// with a 'T' separator still compare correctly.
func (r *SQLite) ListDueReminders(ctx context.Context, now string) ([]model.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.start_time, u.email
		FROM events e
		JOIN users u ON e.user_id = u.id
		WHERE COALESCE(e.is_reminded, 0) = 0
		  AND datetime(e.start_time) <= datetime(?)
		ORDER BY datetime(e.start_time), e.id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []model.DueReminder
	for rows.Next() {
		var d model.DueReminder
		if err := rows.Scan(&d.EventID, &d.Title, &d.StartTime, &d.Email); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *SQLite) MarkReminded(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE events SET is_reminded = 1 WHERE id = ?`, eventID)
	return err
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
