package handler

import (
	"github.com/andressep95/focus-service/internal/domain"
	"github.com/andressep95/focus-service/internal/service"
	"github.com/andressep95/focus-service/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Register creates an account and signs it in
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError("invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return validationError("%v", err)
	}

	resp, err := h.authService.Register(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError("invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return validationError("%v", err)
	}

	resp, err := h.authService.Login(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// RefreshToken handles token refresh
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError("invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return validationError("%v", err)
	}

	tokens, err := h.authService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(tokens)
}

// Logout revokes the current access token and an optional refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*domain.Claims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req logoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return validationError("invalid request body")
		}
	}

	if err := h.authService.Logout(c.Context(), claims, req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

// Me returns the caller's profile and latest sessions
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.authService.Me(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}
