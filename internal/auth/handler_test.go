package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/view"
	_ "github.com/odyssey-erp/odyssey-todo/testing"
)

type authFixture struct {
	repo     *stubRepo
	service  *auth.Service
	sessions *shared.SessionManager
	router   http.Handler
	logs     *bytes.Buffer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubRepo()
	svc, sm := newService(t, repo)
	return buildAuthFixture(t, repo, svc, sm)
}

func buildAuthFixture(t *testing.T, repo *stubRepo, svc *auth.Service, sm *shared.SessionManager) *authFixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	templates, err := view.NewEngine()
	require.NoError(t, err)
	guard := auth.NewGuard(logger, svc)
	handler := auth.NewHandler(logger, svc, guard, templates, shared.NewCSRFManager("csrfsecret"), nil)

	r := chi.NewRouter()
	r.Use(guard.Resolve)
	handler.MountRoutes(r)
	return &authFixture{repo: repo, service: svc, sessions: sm, router: r, logs: logs}
}

// do runs a request against the auth routes with sess already in context.
func (f *authFixture) do(t *testing.T, sess *shared.Session, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *authFixture) freshSession(t *testing.T) *shared.Session {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func (f *authFixture) register(t *testing.T, email, password, name string) *auth.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), auth.RegisterInput{Email: email, Password: password, Name: name})
	require.NoError(t, err)
	return user
}

func TestLoginPageRenders(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.do(t, f.freshSession(t), http.MethodGet, "/login", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestLoginUnknownEmailFlashesAndStaysAnonymous(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.freshSession(t)

	rec := f.do(t, sess, http.MethodPost, "/login", url.Values{"email": {"ghost@example.com"}, "password": {"pw"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok := sess.UserID()
	assert.False(t, ok)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Wrong email. Please, try again!", flash.Message)
}

func TestLoginBadPasswordFlashes(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@example.com", "pw", "A")
	sess := f.freshSession(t)

	rec := f.do(t, sess, http.MethodPost, "/login", url.Values{"email": {"a@example.com"}, "password": {"nope"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok := sess.UserID()
	assert.False(t, ok)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Password incorrect, please try again!", flash.Message)
}

func TestLoginMissingFieldsRerenders(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.do(t, f.freshSession(t), http.MethodPost, "/login", url.Values{"email": {"a@example.com"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")
}

func TestLoginSuccessResolvesIdentityOnNextRequest(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "a@example.com", "pw", "Alice")
	sess := f.freshSession(t)
	ctx := context.Background()

	rec := f.do(t, sess, http.MethodPost, "/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	committed := httptest.NewRecorder()
	require.NoError(t, f.sessions.Commit(ctx, committed, sess))
	cookies := committed.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	loaded, err := f.sessions.Load(ctx, next)
	require.NoError(t, err)

	guard := auth.NewGuard(nil, f.service)
	var seen shared.Identity
	guard.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = guard.CurrentIdentity(r)
	})).ServeHTTP(httptest.NewRecorder(), next.WithContext(shared.ContextWithSession(ctx, loaded)))

	assert.Equal(t, user.ID, seen.UserID)
	assert.Equal(t, "Alice", seen.Name)
}

func TestRegisterLogsIn(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.freshSession(t)

	rec := f.do(t, sess, http.MethodPost, "/register", url.Values{"email": {"new@example.com"}, "password": {"pw"}, "name": {"New"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	userID, ok := sess.UserID()
	assert.True(t, ok)
	assert.Equal(t, "new@example.com", f.repo.users[userID].Email)
}

func TestRegisterTakenEmailRedirectsToLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@example.com", "pw", "A")
	sess := f.freshSession(t)

	rec := f.do(t, sess, http.MethodPost, "/register", url.Values{"email": {"a@example.com"}, "password": {"x"}, "name": {"B"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok := sess.UserID()
	assert.False(t, ok)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "You've already signed up with this email, log in instead.", flash.Message)
}

func TestLogoutRequiresIdentity(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.do(t, f.freshSession(t), http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "a@example.com", "pw", "A")
	sess := f.freshSession(t)
	require.NoError(t, f.service.StartSession(context.Background(), sess, user, "", ""))

	rec := f.do(t, sess, http.MethodGet, "/logout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	_, ok := sess.UserID()
	assert.False(t, ok)
	assert.Empty(t, f.repo.sessions)
}

func TestLoginStillSucceedsWhenSessionAuditFails(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "a@example.com", "pw", "Alice")
	f.repo.sessionErr = errors.New("audit table locked")
	sess := f.freshSession(t)

	rec := f.do(t, sess, http.MethodPost, "/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	userID, ok := sess.UserID()
	assert.True(t, ok)
	assert.Equal(t, user.ID, userID)
	assert.Contains(t, f.logs.String(), `msg="record session"`)
	assert.NotContains(t, f.logs.String(), "register session")
}

func TestRegisterRejectsPasswordBcryptCannotHash(t *testing.T) {
	repo := newStubRepo()
	hasher, err := auth.NewHasher(auth.HasherConfig{Method: auth.MethodBcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	sm := newSessionManager(t)
	f := buildAuthFixture(t, repo, auth.NewService(repo, hasher, sm), sm)
	sess := f.freshSession(t)

	form := url.Values{"email": {"long@example.com"}, "password": {strings.Repeat("p", 73)}, "name": {"Long"}}
	rec := f.do(t, sess, http.MethodPost, "/register", form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords are limited to 72 bytes.")
	assert.Empty(t, repo.users)
	_, ok := sess.UserID()
	assert.False(t, ok)
}
