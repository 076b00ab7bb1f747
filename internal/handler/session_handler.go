package handler

import (
	"fmt"

	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/service"
	"github.com/andressep95/focus-service/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SessionHandler struct {
	sessionService *service.SessionService
	validator      *validator.Validator
}

func NewSessionHandler(sessionService *service.SessionService, validator *validator.Validator) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validator,
	}
}

// Start opens a focus session
// POST /api/v1/sessions/start
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req startSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return validationError("invalid request body: %v", err)
		}
	}

	session, err := h.sessionService.Start(c.Context(), userID, req.PomodoroCount.Ptr())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "session started",
		"session": session,
	})
}

// Tick reports one detector observation
// PUT /api/v1/sessions/:id
func (h *SessionHandler) Tick(c *fiber.Ctx) error {
	userID, sessionID, err := sessionParams(c)
	if err != nil {
		return err
	}

	// an empty body only recomputes focus
	var req tickRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return validationError("invalid request body: %v", err)
		}
	}
	if err := h.validator.Validate(req); err != nil {
		return validationError("%v", err)
	}

	session, err := h.sessionService.RecordTick(c.Context(), userID, sessionID, service.TickInput{
		DistractionDetected: req.DistractionDetected,
		DetectedObjects:     req.DetectedObjects,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "session updated",
		"session": session,
	})
}

// End completes a session and credits its points
// POST /api/v1/sessions/:id/end
func (h *SessionHandler) End(c *fiber.Ctx) error {
	userID, sessionID, err := sessionParams(c)
	if err != nil {
		return err
	}

	result, err := h.sessionService.Finalize(c.Context(), userID, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Abandon closes a session without scoring it
// POST /api/v1/sessions/:id/abandon
func (h *SessionHandler) Abandon(c *fiber.Ctx) error {
	userID, sessionID, err := sessionParams(c)
	if err != nil {
		return err
	}

	session, err := h.sessionService.Abandon(c.Context(), userID, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "session abandoned",
		"session": session,
	})
}

// History lists the caller's sessions
// GET /api/v1/sessions/history?page=1&limit=10
func (h *SessionHandler) History(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := h.sessionService.History(c.Context(), userID, c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Leaderboard ranks all users by points
// GET /api/v1/sessions/leaderboard?limit=10
func (h *SessionHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.sessionService.Leaderboard(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"leaderboard": entries,
	})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

// sessionParams resolves the caller and the :id path parameter. A malformed
// id cannot name an active session, so it is reported as not found.
func sessionParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrSessionNotFound
	}

	return userID, sessionID, nil
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
