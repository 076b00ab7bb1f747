package handler

import (
	"errors"
	"log/slog"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the fiber.Config error handler. Domain errors map to
// their status codes; anything unknown is logged and hidden behind a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := statusFor(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}

func statusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, domain.ErrSessionNotFound):
		return fiber.StatusNotFound, domain.ErrSessionNotFound.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return fiber.StatusConflict, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrTokenRevoked):
		return fiber.StatusUnauthorized, domain.ErrTokenRevoked.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return fiber.StatusUnauthorized, domain.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrFinalizeFailed):
		return fiber.StatusInternalServerError, domain.ErrFinalizeFailed.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
