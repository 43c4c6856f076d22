package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
	"taskflow/pkg/utils"
)

// Config ของที่ route ต้องใช้นอกจาก handlers
type Config struct {
	Tokens *utils.TokenManager
	// AuthLimiter nil = ไม่จำกัด rate ของ /api/auth
	AuthLimiter middleware.RateLimiter
	// Roles nil = admin route เชื่อ role ใน token
	Roles middleware.RoleLookup
	// UploadsDir ถ้าไม่ว่างจะ serve ไฟล์ local storage ที่ UploadsPath
	UploadsDir  string
	UploadsPath string
	HealthCheck func(ctx context.Context) error
}

func SetupRoutes(app *fiber.App, h *handlers.Handlers, cfg Config) {
	SetupHealthRoutes(app, cfg.HealthCheck)

	if cfg.UploadsDir != "" && cfg.UploadsPath != "" {
		app.Static(cfg.UploadsPath, cfg.UploadsDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api")
	protected := middleware.Protected(cfg.Tokens)

	SetupAuthRoutes(api, h, protected, cfg.AuthLimiter)
	SetupUserRoutes(api, h, protected, middleware.AdminOnly(cfg.Roles))
	SetupTaskRoutes(api, h, protected)

	SetupWebSocketRoutes(app, h)
}
