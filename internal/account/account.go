// Package account implements login with registration on first use: an
// unknown username submitted together with an email creates the account.
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/model"
	"personal-calendar/internal/store"
)

type Service struct {
	users store.Users
	log   *zap.Logger
}

func New(users store.Users, log *zap.Logger) *Service {
	return &Service{users: users, log: log}
}

// Login authenticates username/password. When the username is unknown and
// email is non-empty a new account is created and returned.
func (s *Service) Login(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, model.ErrInvalidCredentials
	}

	u, err := s.users.UserByUsername(ctx, username)
	switch {
	case err == nil:
		if !auth.IsHash(u.PasswordHash) {
			return s.upgrade(ctx, u, password)
		}
		if !auth.CheckPassword(u.PasswordHash, password) {
			return nil, model.ErrInvalidCredentials
		}
		return u, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return s.Register(ctx, username, email, password)
}

// upgrade checks a plain-text password kept by an older database and, on a
// match, replaces it with a bcrypt hash.
func (s *Service) upgrade(ctx context.Context, u *model.User, password string) (*model.User, error) {
	if subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(password)) != 1 {
		return nil, model.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return nil, fmt.Errorf("upgrade password: %w", err)
	}
	u.PasswordHash = hash
	s.log.Info("password hash upgraded", zap.Int64("user_id", u.ID))
	return u, nil
}

// Register creates an account; an existing username yields
// model.ErrDuplicateUsername.
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if email == "" {
		return nil, model.ErrMissingEmail
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("account registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}
