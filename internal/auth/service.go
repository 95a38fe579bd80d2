package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	hasher   *Hasher
	sessions *shared.SessionManager
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher *Hasher, sessions *shared.SessionManager) *Service {
	return &Service{repo: repo, hasher: hasher, sessions: sessions}
}

// Register creates a user with a hashed password. A taken email, whether
// seen up front or raced at insert time, yields shared.ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrAlreadyRegistered
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, NewUser{Email: email, PasswordHash: hash, Name: in.Name})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials. An unknown email yields shared.ErrUnknownEmail
// and a mismatched password shared.ErrBadPassword.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownEmail
		}
		return nil, err
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("auth: verify user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, shared.ErrBadPassword
	}
	return user, nil
}

// Lookup loads the user bound to a session.
func (s *Service) Lookup(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// StartSession binds sess to user under a fresh session id and records
// the login for auditing. Audit failures are returned but the session
// binding stays in place.
func (s *Service) StartSession(ctx context.Context, sess *shared.Session, user *User, ip, ua string) error {
	if sess == nil {
		return errors.New("auth: session missing")
	}
	s.sessions.Rotate(sess)
	sess.SetUser(user.ID)
	expiresAt := time.Now().Add(s.sessions.TTL())
	return s.repo.CreateSession(ctx, sess.ID, user.ID, expiresAt, ip, ua)
}

// EndSession destroys sess so later requests are anonymous.
func (s *Service) EndSession(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	id := sess.ID
	s.sessions.Destroy(sess)
	return s.repo.DeleteSession(ctx, id)
}
