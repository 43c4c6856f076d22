package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
)

func SetupAuthRoutes(api fiber.Router, h *handlers.Handlers, protected fiber.Handler, limiter middleware.RateLimiter) {
	auth := api.Group("/auth")

	credentials := []fiber.Handler{}
	if limiter != nil {
		credentials = append(credentials, middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter}))
	}

	auth.Post("/register", append(credentials, h.AuthHandler.Register)...)
	auth.Post("/login", append(credentials, h.AuthHandler.Login)...)
	auth.Post("/logout", h.AuthHandler.Logout)
	auth.Get("/me", protected, h.AuthHandler.Me)
}
