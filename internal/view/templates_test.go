package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginIncludesCSRFField(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{Title: "Log in", CSRFToken: "tok<en>"})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, `name="csrf_token" value="tok&lt;en&gt;"`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderIndexShowsGreetingForIdentity(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/index.html", TemplateData{
		Title:    "Tasks",
		Identity: shared.Identity{UserID: 1, Name: "Alice"},
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Alice")
}
