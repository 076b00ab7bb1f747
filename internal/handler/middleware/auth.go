package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// TokenAuthenticator checks an access token and returns its claims
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error)
}

// AuthMiddleware validates bearer tokens and stores the caller in Locals
func AuthMiddleware(auth TokenAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		claims, err := auth.Authenticate(c.Context(), parts[1])
		switch {
		case errors.Is(err, domain.ErrTokenRevoked):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token has been revoked",
			})
		case errors.Is(err, domain.ErrInvalidToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to verify token status",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("claims", claims)

		return c.Next()
	}
}
