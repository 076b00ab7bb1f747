package handler

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/andressep95/focus-service/internal/config"
	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/handler/middleware"
	"github.com/andressep95/focus-service/internal/repository/sqlite"
	"github.com/andressep95/focus-service/internal/service"
	"github.com/andressep95/focus-service/pkg/clock"
	"github.com/andressep95/focus-service/pkg/hash"
	"github.com/andressep95/focus-service/pkg/jwt"
	"github.com/andressep95/focus-service/pkg/logger"
	"github.com/andressep95/focus-service/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, _ := x509.MarshalPKIXPublicKey(&key.PublicKey)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	tokens, err := jwt.NewTokenService(priv, pub, 15*time.Minute, time.Hour, "focus-test", clock.SystemClock{})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	log := logger.Discard()
	focus := config.FocusConfig{StreakTimezone: "UTC", DefaultPageSize: 10, MaxPageSize: 100}
	hasher := hash.NewHasher(hash.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	v := validator.NewValidator()

	sessionService := service.NewSessionService(store, nil, clock.SystemClock{}, focus, log)
	authService := service.NewAuthService(store, tokens, nil, hasher, sessionService, clock.SystemClock{}, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	SetupRoutes(app,
		NewAuthHandler(authService, v),
		NewSessionHandler(sessionService, v),
		NewHealthHandler(map[string]Pinger{"database": store}),
		middleware.AuthMiddleware(authService),
	)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status, body := do(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d body = %v", status, body)
	}
	return body["tokens"].(map[string]interface{})["access_token"].(string)
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t)

	if status, body := do(t, app, "GET", "/health", "", nil); status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", status, body)
	}
	if status, body := do(t, app, "GET", "/ready", "", nil); status != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready = %d %v", status, body)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "ana")

	status, body := do(t, app, "POST", "/api/v1/sessions/start", token, map[string]interface{}{"pomodoro_count": "2"})
	if status != http.StatusCreated {
		t.Fatalf("start = %d %v", status, body)
	}
	session := body["session"].(map[string]interface{})
	id := session["id"].(string)
	if session["pomodoro_count"].(float64) != 2 || session["status"] != "active" {
		t.Fatalf("session = %v", session)
	}

	status, body = do(t, app, "PUT", "/api/v1/sessions/"+id, token, map[string]interface{}{
		"distraction_detected": true,
		"detected_objects":     []string{"cell phone"},
	})
	if status != http.StatusOK {
		t.Fatalf("tick = %d %v", status, body)
	}
	if body["session"].(map[string]interface{})["distraction_count"].(float64) != 1 {
		t.Fatalf("tick body = %v", body)
	}

	status, body = do(t, app, "POST", "/api/v1/sessions/"+id+"/end", token, nil)
	if status != http.StatusOK {
		t.Fatalf("end = %d %v", status, body)
	}
	// 2 pomodoros, one distraction, no streak bonus
	if body["points_earned"].(float64) != 18 || body["total_points"].(float64) != 18 || body["current_streak"].(float64) != 1 {
		t.Fatalf("end body = %v", body)
	}

	status, body = do(t, app, "POST", "/api/v1/sessions/"+id+"/end", token, nil)
	if status != http.StatusNotFound || body["error"] != "active session not found" {
		t.Fatalf("second end = %d %v", status, body)
	}

	status, body = do(t, app, "GET", "/api/v1/sessions/history?page=0&limit=5", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history = %d %v", status, body)
	}
	pagination := body["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 1 || pagination["page"].(float64) != 1 || pagination["pages"].(float64) != 1 {
		t.Fatalf("pagination = %v", pagination)
	}

	status, body = do(t, app, "GET", "/api/v1/sessions/leaderboard", token, nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard = %d %v", status, body)
	}
	board := body["leaderboard"].([]interface{})
	if len(board) != 1 || board[0].(map[string]interface{})["username"] != "ana" {
		t.Fatalf("leaderboard = %v", board)
	}

	status, body = do(t, app, "GET", "/api/v1/auth/me", token, nil)
	if status != http.StatusOK || body["total_points"].(float64) != 18 || len(body["sessions"].([]interface{})) != 1 {
		t.Fatalf("me = %d %v", status, body)
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestSessionErrorsOverHTTP(t *testing.T) {
	app := newTestApp(t)
	ana := register(t, app, "ana")
	bob := register(t, app, "bob")

	_, body := do(t, app, "POST", "/api/v1/sessions/start", ana, nil)
	id := body["session"].(map[string]interface{})["id"].(string)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"no token", "POST", "/api/v1/sessions/start", "", nil, http.StatusUnauthorized},
		{"garbage token", "POST", "/api/v1/sessions/start", "abc", nil, http.StatusUnauthorized},
		{"negative count", "POST", "/api/v1/sessions/start", ana, map[string]int{"pomodoro_count": -1}, http.StatusBadRequest},
		{"non numeric count", "POST", "/api/v1/sessions/start", ana, map[string]string{"pomodoro_count": "many"}, http.StatusBadRequest},
		{"malformed id", "PUT", "/api/v1/sessions/not-a-uuid", ana, map[string]bool{"distraction_detected": true}, http.StatusNotFound},
		{"other owner tick", "PUT", "/api/v1/sessions/" + id, bob, map[string]bool{"distraction_detected": true}, http.StatusNotFound},
		{"other owner end", "POST", "/api/v1/sessions/" + id + "/end", bob, nil, http.StatusNotFound},
		{"broken json", "PUT", "/api/v1/sessions/" + id, ana, "{", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, app, tc.method, tc.path, tc.token, tc.body)
			if status != tc.status {
				t.Fatalf("status = %d, want %d (%v)", status, tc.status, body)
			}
			if _, ok := body["error"]; !ok {
				t.Fatalf("missing error field: %v", body)
			}
		})
	}

	status, body := do(t, app, "POST", "/api/v1/sessions/"+id+"/abandon", ana, nil)
	if status != http.StatusOK || body["session"].(map[string]interface{})["status"] != "abandoned" {
		t.Fatalf("abandon = %d %v", status, body)
	}
}

func TestAuthOverHTTP(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "ana")

	status, _ := do(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": "ana", "email": "other@example.com", "password": "password123",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate register = %d", status)
	}

	status, body := do(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": "x", "email": "bad", "password": "short",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid register = %d %v", status, body)
	}

	status, _ = do(t, app, "POST", "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope-nope"})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", status)
	}

	status, body = do(t, app, "POST", "/api/v1/auth/login", "", map[string]string{"email": "ANA@example.com", "password": "password123"})
	if status != http.StatusOK {
		t.Fatalf("login = %d %v", status, body)
	}
	tokens := body["tokens"].(map[string]interface{})

	status, body = do(t, app, "POST", "/api/v1/auth/refresh", "", map[string]string{"refresh_token": tokens["refresh_token"].(string)})
	if status != http.StatusOK || body["access_token"] == "" {
		t.Fatalf("refresh = %d %v", status, body)
	}

	status, _ = do(t, app, "POST", "/api/v1/auth/logout", tokens["access_token"].(string), nil)
	if status != http.StatusOK {
		t.Fatalf("logout = %d", status)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.New("boom"), fiber.StatusInternalServerError},
		{fiber.ErrNotFound, fiber.StatusNotFound},
		{validationError("bad"), fiber.StatusBadRequest},
		{domain.ErrSessionNotFound, fiber.StatusNotFound},
		{fmt.Errorf("%w: %w", domain.ErrFinalizeFailed, domain.ErrPersistence), fiber.StatusInternalServerError},
		{domain.ErrUserExists, fiber.StatusConflict},
		{domain.ErrTokenRevoked, fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		if got, _ := statusFor(tc.err); got != tc.status {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestTickWithoutBodyAndOversizedStart(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "ana")

	status, body := do(t, app, "POST", "/api/v1/sessions/start", token, map[string]interface{}{"pomodoro_count": domain.MaxPomodoroCount + 1})
	if status != http.StatusBadRequest {
		t.Fatalf("oversized start status = %d body = %v", status, body)
	}

	_, body = do(t, app, "POST", "/api/v1/sessions/start", token, nil)
	id := body["session"].(map[string]interface{})["id"].(string)

	status, body = do(t, app, "PUT", "/api/v1/sessions/"+id, token, nil)
	if status != http.StatusOK {
		t.Fatalf("empty tick status = %d body = %v", status, body)
	}
	session := body["session"].(map[string]interface{})
	if session["distraction_count"].(float64) != 0 || session["status"] != "active" {
		t.Fatalf("empty tick session = %v", session)
	}
}
