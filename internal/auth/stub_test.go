package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[int64]*auth.User
	sessions map[string]int64
	nextID   int64
	// raceOnCreate makes CreateUser behave as if another request won the insert.
	raceOnCreate bool
	// sessionErr is returned by CreateSession when set.
	sessionErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]*auth.User{}, sessions: map[string]int64{}}
}

func (s *stubRepo) CreateUser(ctx context.Context, user auth.NewUser) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raceOnCreate {
		return nil, shared.ErrAlreadyRegistered
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, shared.ErrAlreadyRegistered
		}
	}
	s.nextID++
	created := &auth.User{ID: s.nextID, Email: user.Email, PasswordHash: user.PasswordHash, Name: user.Name, CreatedAt: time.Now()}
	s.users[created.ID] = created
	return created, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionErr != nil {
		return s.sessionErr
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func newService(t *testing.T, repo auth.Repository) (*auth.Service, *shared.SessionManager) {
	t.Helper()
	sm := newSessionManager(t)
	return auth.NewService(repo, fastHasher(t), sm), sm
}
