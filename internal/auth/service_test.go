package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

func TestRegisterStoresHashNotPassword(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newService(t, repo)

	user, err := svc.Register(context.Background(), auth.RegisterInput{Email: " Alice@Example.com ", Password: "pw", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "pw", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "pw$")
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "a@example.com", Password: "pw", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterInput{Email: "A@EXAMPLE.COM", Password: "other", Name: "B"})
	assert.ErrorIs(t, err, shared.ErrAlreadyRegistered)
	assert.Len(t, repo.users, 1)
}

func TestRegisterMapsInsertRace(t *testing.T) {
	repo := newStubRepo()
	repo.raceOnCreate = true
	svc, _ := newService(t, repo)

	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@example.com", Password: "pw", Name: "A"})
	assert.ErrorIs(t, err, shared.ErrAlreadyRegistered)
}

func TestLoginOutcomes(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterInput{Email: "a@example.com", Password: "pw", Name: "A"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, "A@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, shared.ErrUnknownEmail)

	_, err = svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrBadPassword)
}

func TestStartAndEndSession(t *testing.T) {
	repo := newStubRepo()
	svc, sm := newService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterInput{Email: "a@example.com", Password: "pw", Name: "A"})
	require.NoError(t, err)

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	anonymousID := sess.ID

	require.NoError(t, svc.StartSession(ctx, sess, user, "127.0.0.1", "test"))
	assert.NotEqual(t, anonymousID, sess.ID)
	userID, ok := sess.UserID()
	assert.True(t, ok)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, user.ID, repo.sessions[sess.ID])

	require.NoError(t, svc.EndSession(ctx, sess))
	_, ok = sess.UserID()
	assert.False(t, ok)
	assert.Empty(t, repo.sessions)
}
