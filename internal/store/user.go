package store

import (
	"context"

	"personal-calendar/internal/model"
)

func (s *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password) VALUES ($1,$2,$3) RETURNING id`,
		u.Username, u.Email, u.PasswordHash,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return model.ErrDuplicateUsername
	}
	return err
}

func (s *Postgres) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, pgErr(err)
	}
	return u, nil
}

func (s *Postgres) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password=$1 WHERE id=$2`, hash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
