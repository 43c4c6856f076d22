package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"taskflow/pkg/logger"
)

// LoggerMiddleware log หนึ่งบรรทัดต่อ request หลังจบ
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// ให้ ErrorHandler เขียน status ก่อนค่อย log
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		logFunc := logger.InfoContext
		if status >= 500 {
			logFunc = logger.ErrorContext
		} else if status >= 400 {
			logFunc = logger.WarnContext
		}

		logFunc(c.UserContext(), "Request completed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
			"bytes", len(c.Response().Body()),
		)

		return nil
	}
}
