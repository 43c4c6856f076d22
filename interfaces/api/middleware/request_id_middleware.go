package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskflow/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"

	// id จาก client ที่ยาวกว่านี้ถูกแทนด้วย uuid ใหม่
	maxRequestIDLength = 128
)

// RequestIDMiddleware ใช้ X-Request-ID ของ client ถ้ามี ไม่งั้นสร้างใหม่
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDHeader, requestID)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), requestID))
		c.Locals("request_id", requestID)

		return c.Next()
	}
}

func GetRequestIDFromContext(c *fiber.Ctx) string {
	if requestID, ok := c.Locals("request_id").(string); ok {
		return requestID
	}
	return ""
}
