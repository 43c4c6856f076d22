package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"taskflow/pkg/logger"
)

func SetupHealthRoutes(app *fiber.App, check func(ctx context.Context) error) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()

			if err := check(ctx); err != nil {
				logger.ErrorContext(ctx, "Health check failed", "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"message": "Database unreachable",
				})
			}
		}

		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "Server is running",
			"service":   "taskflow",
			"timestamp": time.Now().UTC(),
		})
	})
}
