package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/dating-profiles/internal/config"
	sqliteRepo "github.com/sakif/dating-profiles/internal/repository/sqlite"
)

// End-to-end tests: the real router, services and an in-memory SQLite store.

// =========================================================================
// HELPERS
// =========================================================================

const testSecret = "test-secret-at-least-16-chars!!"

func testConfig() *config.Config {
	return &config.Config{
		Env:      config.EnvProduction,
		LogLevel: "error",
		HTTP: config.HTTPConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:  testSecret,
			TokenTTL:   time.Hour,
			Issuer:     "dating-profiles",
			BcryptCost: 4,
		},
		Storage: config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: sqliteRepo.MemoryPath},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

type testClient struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testClient {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return &testClient{t: t, h: srv.Handler()}
}

// do sends a request and decodes the JSON body into a map.
func (c *testClient) do(method, path, token, body string) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.NewDecoder(rr.Body).Decode(&out))
	}
	return rr.Code, out
}

func registerBody(overrides map[string]any) string {
	body := map[string]any{
		"name":                  "Alice",
		"nickname":              "ali",
		"email":                 "alice@example.com",
		"password":              "secret1",
		"role":                  "woman",
		"gender":                "female",
		"birthday":              "1995-04-12",
		"interested_in_genders": []string{"male"},
		"interested_in_roles":   []string{"man"},
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	return buf.String()
}

// register creates a user and returns its token and id.
func (c *testClient) register(overrides map[string]any) (token, id string) {
	c.t.Helper()

	status, body := c.do(http.MethodPost, "/api/auth/register", "", registerBody(overrides))
	require.Equal(c.t, http.StatusCreated, status, "register body: %v", body)

	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_ReturnsTokenAndPublicProfile(t *testing.T) {
	c := newTestServer(t)

	status, body := c.do(http.MethodPost, "/api/auth/register", "",
		registerBody(map[string]any{"email": "  Alice@Example.COM ", "name": "  Alice  "}))

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, false, user["is_verified"])
	assert.Equal(t, "", user["bio"])
	assert.Equal(t, []any{"male"}, user["interested_in_genders"])
	for _, hidden := range []string{"password", "password_hash", "is_deleted", "created_at"} {
		assert.NotContains(t, user, hidden)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name       string
		overrides  map[string]any
		wantDetail string
	}{
		{"missing name", map[string]any{"name": nil}, "Name is required"},
		{"blank nickname", map[string]any{"nickname": "   "}, "Nickname is required"},
		{"bad email", map[string]any{"email": "not-an-email"}, "Please enter a valid email"},
		{"short password", map[string]any{"password": "12345"}, "Password must be at least 6 characters long"},
		{"multi-byte password over 72 bytes", map[string]any{"password": strings.Repeat("é", 40)}, "Password must be at most 72 bytes long"},
		{"bad role", map[string]any{"role": "robot"}, "Invalid role"},
		{"bad gender", map[string]any{"gender": "unknown"}, "Invalid gender"},
		{"bad birthday", map[string]any{"birthday": "yesterday"}, "Invalid birthday format"},
		{"birthday not a string", map[string]any{"birthday": 123}, "Invalid birthday format"},
		{"genders not a list", map[string]any{"interested_in_genders": "male"}, "Interested in genders must be an array"},
		{"roles missing", map[string]any{"interested_in_roles": nil}, "Interested in roles must be an array"},
		{"bad gender in list", map[string]any{"interested_in_genders": []string{"male", "dragon"}}, "Invalid gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t)

			status, body := c.do(http.MethodPost, "/api/auth/register", "", registerBody(tt.overrides))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Validation Error", body["error"])
			assert.Contains(t, body["details"], tt.wantDetail)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	c := newTestServer(t)
	c.register(nil)

	status, body := c.do(http.MethodPost, "/api/auth/register", "",
		registerBody(map[string]any{"nickname": "other", "email": "ALICE@example.com"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Duplicate field value entered", body["error"])
	assert.Equal(t, "email", body["field"])

	status, body = c.do(http.MethodPost, "/api/auth/register", "",
		registerBody(map[string]any{"email": "other@example.com"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "nickname", body["field"])
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin(t *testing.T) {
	c := newTestServer(t)
	_, id := c.register(nil)

	status, body := c.do(http.MethodPost, "/api/auth/login", "", `{"email":"ALICE@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, id, body["user"].(map[string]any)["id"])

	token := body["token"].(string)
	status, _ = c.do(http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	c := newTestServer(t)
	c.register(nil)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"secret1"}`,
	} {
		status, resp := c.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"error": "Invalid email or password"}, resp)
	}
}

// =========================================================================
// SESSION GUARD
// =========================================================================

func TestGuard(t *testing.T) {
	c := newTestServer(t)
	c.register(nil)

	status, body := c.do(http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No token, authorization denied", body["error"])

	status, body = c.do(http.MethodGet, "/api/auth/me", "not.a.jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["error"])

	status, _ = c.do(http.MethodPatch, "/api/users/me", "", `{"bio":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// =========================================================================
// PROFILES
// =========================================================================

func TestMeAndGetByID_ReturnFullProfile(t *testing.T) {
	c := newTestServer(t)
	aliceToken, aliceID := c.register(nil)
	_, bobID := c.register(map[string]any{"nickname": "bob", "email": "bob@example.com", "name": "Bob"})

	status, body := c.do(http.MethodGet, "/api/auth/me", aliceToken, "")
	require.Equal(t, http.StatusOK, status)
	me := body["user"].(map[string]any)
	assert.Equal(t, aliceID, me["id"])
	assert.Contains(t, me, "created_at")
	assert.Contains(t, me, "last_active_at")
	assert.NotContains(t, me, "password_hash")

	status, body = c.do(http.MethodGet, "/api/users/"+bobID, aliceToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bob", body["user"].(map[string]any)["name"])

	status, body = c.do(http.MethodGet, "/api/users/does-not-exist", aliceToken, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])
}

func TestUpdateMe_AppliesWhitelistOnly(t *testing.T) {
	c := newTestServer(t)
	token, _ := c.register(nil)

	status, body := c.do(http.MethodPatch, "/api/users/me", token,
		`{"bio":"  Climber ","location":"Lyon","role":"man","email":"hijack@example.com","is_verified":true,"interested_in_roles":[]}`)
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, "Profile updated successfully", body["message"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "Climber", user["bio"])
	assert.Equal(t, "Lyon", user["location"])
	assert.Equal(t, "woman", user["role"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, false, user["is_verified"])
	assert.Equal(t, []any{}, user["interested_in_roles"])
	assert.Equal(t, []any{"male"}, user["interested_in_genders"])

	// login still uses the original email
	status, _ = c.do(http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestUpdateMe_Errors(t *testing.T) {
	c := newTestServer(t)
	token, _ := c.register(nil)
	c.register(map[string]any{"nickname": "bob", "email": "bob@example.com"})

	status, body := c.do(http.MethodPatch, "/api/users/me", token, `{"nickname":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "nickname", body["field"])

	status, body = c.do(http.MethodPatch, "/api/users/me", token, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"Name cannot be empty"}, body["details"])

	status, body = c.do(http.MethodPatch, "/api/users/me", token, `{"interested_in_genders":"male"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"Must be an array"}, body["details"])
}

func TestDeleteMe_SoftDeletes(t *testing.T) {
	c := newTestServer(t)
	aliceToken, aliceID := c.register(nil)
	bobToken, _ := c.register(map[string]any{"nickname": "bob", "email": "bob@example.com"})

	status, body := c.do(http.MethodDelete, "/api/users/me", aliceToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Account deleted successfully", body["message"])

	// cannot log in any more
	status, _ = c.do(http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	// still addressable by id
	status, _ = c.do(http.MethodGet, "/api/users/"+aliceID, bobToken, "")
	assert.Equal(t, http.StatusOK, status)

	// email and nickname stay reserved
	status, body = c.do(http.MethodPost, "/api/auth/register", "", registerBody(nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Duplicate field value entered", body["error"])

	// no revocation: the old token still authenticates
	status, _ = c.do(http.MethodDelete, "/api/users/me", aliceToken, "")
	assert.Equal(t, http.StatusOK, status)
}

// =========================================================================
// OPERATIONAL
// =========================================================================

func TestHealthMetricsAndFallbacks(t *testing.T) {
	c := newTestServer(t)

	status, body := c.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	c.do(http.MethodGet, "/api/auth/me", "", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `auth_failures_total{reason="missing_token"} 1`)
	assert.Contains(t, rr.Body.String(), `route="/health"`)

	status, body = c.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route not found", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	c := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/users/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), testConfig(), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StorageConfig{Driver: "cassandra"})
	assert.Error(t, err)
}
