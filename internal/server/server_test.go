package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"threadline/internal/cache"
	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-identity-secret-with-32-characters"

type testEnv struct {
	srv    *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
	tokens *identity.JWTProvider
}

// newTestEnv builds the full app over an in-memory database and miniredis. Tests
// using it must not run in parallel because the cache client is process-wide.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	cfg := &config.Config{
		Env:            "test",
		Port:           "0",
		IdentitySecret: testSecret,
		AllowedOrigins: "http://localhost:3000",
		FeatureFlags:   "realtime_activity=on,feed_cache=on",
		FeedPageSize:   20,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{
		srv:    srv,
		app:    srv.App(),
		db:     db,
		mr:     mr,
		tokens: identity.NewJWTProvider(testSecret, "", ""),
	}
}

func (e *testEnv) token(t *testing.T, externalID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(externalID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request and returns the status and raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body, dest any) int {
	t.Helper()
	status, raw := e.do(t, method, path, token, body)
	if dest != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, dest), "body: %s", raw)
	}
	return status
}

type testUser struct {
	ID    uint
	Token string
}

// onboard signs up handle through the API and returns its id and bearer token.
func (e *testEnv) onboard(t *testing.T, handle string) testUser {
	t.Helper()
	tok := e.token(t, "ext_"+handle)
	var user struct {
		ID uint `json:"id"`
	}
	status := e.doJSON(t, http.MethodPut, "/api/users/me", tok, map[string]string{
		"name":     handle,
		"username": handle,
		"image":    fmt.Sprintf("https://img.test/%s.png", handle),
	}, &user)
	require.Equal(t, http.StatusOK, status)
	require.NotZero(t, user.ID)
	return testUser{ID: user.ID, Token: tok}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	status = env.doJSON(t, http.MethodGet, "/api/health/ready", "", nil, &ready)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, "healthy", ready.Checks["redis"])

	env.mr.Close()
	status = env.doJSON(t, http.MethodGet, "/api/health/ready", "", nil, &ready)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", ready.Checks["redis"])
}

func TestMutationsRequireViewer(t *testing.T) {
	env := newTestEnv(t)

	var body errorBody
	status := env.doJSON(t, http.MethodPost, "/api/threads", "", map[string]string{"text": "hi"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Code)

	status = env.doJSON(t, http.MethodPost, "/api/thread/like", "", map[string]uint{"threadId": 1}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = env.doJSON(t, http.MethodPost, "/api/thread/comment", "", map[string]any{"threadId": 1, "text": "x"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMutationsRequireOnboardedViewer(t *testing.T) {
	env := newTestEnv(t)

	var body errorBody
	status := env.doJSON(t, http.MethodPost, "/api/threads", env.token(t, "ext_stranger"),
		map[string]string{"text": "hi"}, &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user not onboarded", body.Error)
}

func TestInvalidTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/threads", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	other := identity.NewJWTProvider("some-other-secret-with-32-characters!", "", "")
	forged, err := other.Issue("ext_alice", time.Hour)
	require.NoError(t, err)
	status, _ = env.do(t, http.MethodGet, "/api/threads", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFeatureFlagsForViewer(t *testing.T) {
	env := newTestEnv(t)

	var flags map[string]bool
	status := env.doJSON(t, http.MethodGet, "/api/feature-flags", "", nil, &flags)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, flags["realtime_activity"])
	assert.True(t, flags["feed_cache"])
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	var body errorBody
	status := env.doJSON(t, http.MethodGet, "/api/nope", "", nil, &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Code)
}
