package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type normalizer interface {
	Normalize()
}

// parseBody decode + normalize + validate ถ้าไม่ผ่านจะเขียน 400 ไปแล้ว และคืน false
func parseBody(c *fiber.Ctx, req any) (bool, error) {
	ctx := c.UserContext()

	if err := c.BodyParser(req); err != nil {
		details := utils.BodyErrorDetails(err)
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return false, utils.ValidationErrorResponse(c, details)
	}

	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}

	if err := utils.ValidateStruct(req); err != nil {
		details := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", details)
		return false, utils.ValidationErrorResponse(c, details)
	}

	return true, nil
}

func parseQuery(c *fiber.Ctx, query any, applyDefaults func()) (bool, error) {
	ctx := c.UserContext()

	if err := c.QueryParser(query); err != nil {
		logger.WarnContext(ctx, "Invalid query", "error", err)
		return false, utils.ValidationErrorResponse(c, []utils.FieldError{{
			Field:   "query",
			Tag:     "type",
			Message: "query parameters are invalid",
		}})
	}

	applyDefaults()

	if err := utils.ValidateStruct(query); err != nil {
		details := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Query validation failed", "errors", details)
		return false, utils.ValidationErrorResponse(c, details)
	}

	return true, nil
}

// parseIDParam id ที่ parse ไม่ได้ถือว่าไม่พบ
func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		logger.WarnContext(c.UserContext(), "Malformed id", name, c.Params(name))
		return uuid.Nil, false
	}
	return id, true
}
