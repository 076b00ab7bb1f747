package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type stubAuthenticator struct {
	claims *domain.Claims
	err    error
}

func (s stubAuthenticator) Authenticate(context.Context, string) (*domain.Claims, error) {
	return s.claims, s.err
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	cases := []struct {
		name   string
		header string
		auth   stubAuthenticator
		status int
	}{
		{"missing header", "", stubAuthenticator{}, fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", stubAuthenticator{}, fiber.StatusUnauthorized},
		{"invalid token", "Bearer abc", stubAuthenticator{err: domain.ErrInvalidToken}, fiber.StatusUnauthorized},
		{"revoked token", "Bearer abc", stubAuthenticator{err: domain.ErrTokenRevoked}, fiber.StatusUnauthorized},
		{"store failure", "Bearer abc", stubAuthenticator{err: io.ErrUnexpectedEOF}, fiber.StatusInternalServerError},
		{"valid token", "Bearer abc", stubAuthenticator{claims: &domain.Claims{UserID: userID}}, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", AuthMiddleware(tc.auth), func(c *fiber.Ctx) error {
				if got, _ := c.Locals("user_id").(uuid.UUID); got != userID {
					t.Errorf("user_id local = %v", got)
				}
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestRecoveryAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := fiber.New()
	app.Use(LoggerMiddleware(logger), RecoveryMiddleware(logger))
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	out := buf.String()
	if !strings.Contains(out, "panic recovered") || !strings.Contains(out, "kaboom") {
		t.Fatalf("panic not logged: %s", out)
	}
	if !strings.Contains(out, "path=/missing") || !strings.Contains(out, "status=404") {
		t.Fatalf("request not logged: %s", out)
	}
}
