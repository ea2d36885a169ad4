package store

import (
	"context"
	"fmt"

	"personal-calendar/internal/model"
)

// Users is the user table.
type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
}

// Events is the events table. Every operation taking a userID only sees
// that user's rows; anything else is model.ErrNotFound.
type Events interface {
	CreateEvent(ctx context.Context, userID int64, in model.EventInput) (int64, error)
	GetEvent(ctx context.Context, id, userID int64) (*model.Event, error)
	ListEvents(ctx context.Context, userID int64) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id, userID int64, in model.EventInput) error
	DeleteEvent(ctx context.Context, id, userID int64) error
}

// Reminders is the view used by the reminder scanner.
type Reminders interface {
	ListDueReminders(ctx context.Context, now string) ([]model.DueReminder, error)
	MarkReminded(ctx context.Context, eventID int64) error
}

type Repo interface {
	Users
	Events
	Reminders
	Close() error
}

// Open returns the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Repo, error) {
	switch driver {
	case "postgres":
		return OpenPostgres(ctx, dsn)
	case "sqlite":
		return OpenSQLite(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown driver %q", driver)
}
