package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

// ErrorHandler แปลง error ที่หลุดจาก handler (รวมถึง fiber.Error) เป็น envelope
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := utils.ErrCodeInternalError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
			switch code {
			case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
				errCode = utils.ErrCodeBadRequest
			case fiber.StatusUnauthorized:
				errCode = utils.ErrCodeUnauthorized
			case fiber.StatusForbidden:
				errCode = utils.ErrCodeForbidden
			case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
				errCode = utils.ErrCodeNotFound
			case fiber.StatusTooManyRequests:
				errCode = utils.ErrCodeTooManyRequests
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "Unhandled error", "path", c.Path(), "error", err)
			message = "Internal server error"
		} else {
			logger.WarnContext(c.UserContext(), "Request error", "path", c.Path(), "status", code, "error", err)
		}

		return utils.ErrorResponse(c, code, errCode, message, nil)
	}
}
