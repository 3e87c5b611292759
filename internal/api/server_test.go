package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kinforge/internal/family"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/persistence"
	"github.com/talgya/kinforge/internal/template"
)

func newTestServer(t *testing.T, withDB bool, adminKey string) *Server {
	t.Helper()
	tpl, err := template.Default()
	require.NoError(t, err)
	bp, err := tpl.Blueprint()
	require.NoError(t, err)

	s := &Server{
		Template:  tpl.Name,
		Blueprint: bp,
		Names:     names.NewLibrary(t.TempDir()),
		Settings:  family.DefaultSettings(),
		AdminKey:  adminKey,
		MaxDepth:  3,
	}
	if withDB {
		db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		s.DB = db
	}
	return s
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	h := newTestServer(t, false, "").Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Default", body["template"])
	assert.Equal(t, false, body["saving"])
}

func TestGenerateIsSeeded(t *testing.T) {
	h := newTestServer(t, false, "").Handler()
	a := do(t, h, http.MethodGet, "/api/v1/generate?seed=5&depth=2", "")
	b := do(t, h, http.MethodGet, "/api/v1/generate?seed=5&depth=2", "")
	require.Equal(t, http.StatusOK, a.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())

	var fam familyView
	require.NoError(t, json.Unmarshal(a.Body.Bytes(), &fam))
	assert.Equal(t, int64(5), fam.Seed)
	require.NotEmpty(t, fam.Characters)
	assert.Equal(t, 0, fam.Characters[0].ID)
	assert.Nil(t, fam.Characters[0].Parent)
	for _, c := range fam.Characters[1:] {
		assert.NotNil(t, c.Parent)
		assert.NotEmpty(t, c.Relationship)
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	h := newTestServer(t, false, "").Handler()
	for _, target := range []string{
		"/api/v1/generate?seed=abc",
		"/api/v1/generate?depth=x",
		"/api/v1/generate?depth=9",
		"/api/v1/generate?depth=-1",
		"/api/v1/generate?immediate=maybe",
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, target, "").Code, target)
	}
}

func TestGenerateImmediateOnly(t *testing.T) {
	h := newTestServer(t, false, "").Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/generate?seed=9&depth=3&immediate=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fam familyView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fam))
	for _, c := range fam.Characters[1:] {
		require.NotNil(t, c.Parent)
		assert.Equal(t, fam.Subject, *c.Parent, "only the subject's own relatives")
	}
}

func TestSavedFamiliesNeedDB(t *testing.T) {
	h := newTestServer(t, false, "key").Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/families", "").Code)
}

func TestSaveRequiresAdmin(t *testing.T) {
	h := newTestServer(t, true, "").Handler()
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/api/v1/families", "anything").Code)

	h = newTestServer(t, true, "key").Handler()
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/families", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/families", "wrong").Code)
}

func TestSaveAndBrowse(t *testing.T) {
	h := newTestServer(t, true, "key").Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/families?seed=21&depth=1", "key")
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved struct {
		ID         string `json:"id"`
		Characters int    `json:"characters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)

	rec = do(t, h, http.MethodGet, "/api/v1/families", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []persistence.Family
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, int64(21), list[0].Seed)

	rec = do(t, h, http.MethodGet, "/api/v1/families/"+saved.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fam familyView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fam))
	assert.Len(t, fam.Characters, saved.Characters)

	gen := do(t, h, http.MethodGet, "/api/v1/generate?seed=21&depth=1", "")
	var fresh familyView
	require.NoError(t, json.Unmarshal(gen.Body.Bytes(), &fresh))
	assert.Equal(t, fresh.Characters, fam.Characters)
	assert.Equal(t, fresh.Links, fam.Links)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/families/nope", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, false, "")
	s.Origins = []string{"https://kin.example"}
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/generate", nil)
	req.Header.Set("Origin", "https://kin.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://kin.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, 0, rl.RetryAfter("unknown"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10.0.0.1", clientIP(req))
	assert.Equal(t, "192.0.2.1", clientIP(other))
}
