package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

const userColumns = `id, email, password_hash, name, created_at`

// CreateUser inserts a user. A duplicate email maps to shared.ErrAlreadyRegistered.
func (s *Store) CreateUser(ctx context.Context, user auth.NewUser) (*auth.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name, created_at) VALUES (?, ?, ?, ?) RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.Name, toMillis(time.Now()))
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	user, err := scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return user, nil
}

// FindByEmail fetches a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, err := scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// CreateSession records a login session for auditing.
func (s *Store) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO user_sessions (id, user_id, created_at, expires_at, ip, user_agent) VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
		id, userID, toMillis(time.Now()), toMillis(expiresAt), ip, ua)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// DeleteSession removes a session audit row.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes audit rows that expired before cutoff.
func (s *Store) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountSessions returns the number of audit rows for a user.
func (s *Store) CountSessions(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_sessions WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var (
		user      auth.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

var _ auth.Repository = (*Store)(nil)
