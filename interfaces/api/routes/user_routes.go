package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
)

func SetupUserRoutes(api fiber.Router, h *handlers.Handlers, protected, adminOnly fiber.Handler) {
	users := api.Group("/users")
	users.Use(protected)
	users.Get("/profile", h.UserHandler.GetProfile)
	users.Put("/profile", h.UserHandler.UpdateProfile)
	users.Post("/profile/avatar", h.UserHandler.UploadAvatar)

	// Admin
	users.Get("/", adminOnly, h.UserHandler.ListUsers)
	users.Patch("/:id/status", adminOnly, h.UserHandler.SetUserStatus)
}
