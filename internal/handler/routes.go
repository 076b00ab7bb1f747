package handler

import (
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	sessionHandler *SessionHandler,
	healthHandler *HealthHandler,
	authMiddleware fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authMiddleware, authHandler.Logout)
	auth.Get("/me", authMiddleware, authHandler.Me)

	// Focus sessions (protected)
	sessions := api.Group("/sessions", authMiddleware)
	sessions.Post("/start", sessionHandler.Start)
	sessions.Get("/history", sessionHandler.History)
	sessions.Get("/leaderboard", sessionHandler.Leaderboard)
	sessions.Put("/:id", sessionHandler.Tick)
	sessions.Post("/:id/end", sessionHandler.End)
	sessions.Post("/:id/abandon", sessionHandler.Abandon)
}
