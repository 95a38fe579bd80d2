package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

func TestCSRFTokenIsStableWithinSession(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	first, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	second, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, csrf.VerifyToken(ctx, sess, first))
}

func TestCSRFVerifyRejectsMissingAndMismatched(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "anything"), shared.ErrCSRFTokenMissing)
	_, err = csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, "forged"), shared.ErrCSRFTokenMissing)
}

func TestTokenFromRequest(t *testing.T) {
	form := url.Values{shared.CSRFFormField: {"from-form"}}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(shared.CSRFHeader, "from-header")
	assert.Equal(t, "from-form", shared.TokenFromRequest(req))

	req = httptest.NewRequest(http.MethodPost, "/add", nil)
	req.Header.Set(shared.CSRFHeader, "from-header")
	assert.Equal(t, "from-header", shared.TokenFromRequest(req))
}
