package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskflow/domain/models"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

// authFailedMessage ข้อความเดียวกันทุกกรณี เหตุผลจริงอยู่ใน log
const authFailedMessage = "Not authorized, token failed"

// Protected ตรวจ Bearer token แล้วเก็บ *utils.UserContext ไว้ใน locals "user"
func Protected(tokens *utils.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		token := utils.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			logger.WarnContext(ctx, "Missing bearer token", "path", c.Path())
			return utils.UnauthorizedResponse(c, "Not authorized, no token")
		}

		userCtx, err := tokens.Verify(token)
		if err != nil {
			logger.WarnContext(ctx, "Token validation failed", "path", c.Path(), "error", err)
			return utils.UnauthorizedResponse(c, authFailedMessage)
		}

		c.Locals("user", userCtx)
		c.SetUserContext(logger.ContextWithUserID(ctx, userCtx.ID.String()))

		return c.Next()
	}
}

// RoleLookup อ่าน role ปัจจุบันของ user จาก store
type RoleLookup func(ctx context.Context, userID uuid.UUID) (string, error)

// UserRoleLookup role ของบัญชีที่ถูกปิดไปแล้วจะเป็น "" เสมอ
func UserRoleLookup(users services.UserService) RoleLookup {
	return func(ctx context.Context, userID uuid.UUID) (string, error) {
		user, err := users.GetProfile(ctx, userID)
		if err != nil {
			return "", err
		}
		if !user.IsActive {
			return "", nil
		}
		return user.Role, nil
	}
}

// RequireRole ต้องอยู่หลัง Protected
// lookup nil = เชื่อ role ใน token, ไม่ nil = เช็ค role ปัจจุบันจาก store ทุก request
func RequireRole(role string, lookup RoleLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		user, err := utils.GetUserFromContext(c)
		if err != nil {
			return utils.UnauthorizedResponse(c, "User not authenticated")
		}

		current := user.Role
		if lookup != nil {
			current, err = lookup(ctx, user.ID)
			if errors.Is(err, services.ErrUserNotFound) {
				logger.WarnContext(ctx, "Token user no longer exists")
				return utils.UnauthorizedResponse(c, authFailedMessage)
			}
			if err != nil {
				logger.ErrorContext(ctx, "Failed to load user role", "error", err)
				return utils.InternalServerErrorResponse(c)
			}
		}

		if current != role {
			logger.WarnContext(ctx, "Insufficient permissions",
				"required_role", role,
				"role", current,
			)
			return utils.ForbiddenResponse(c, "Insufficient permissions")
		}

		return c.Next()
	}
}

func AdminOnly(lookup RoleLookup) fiber.Handler {
	return RequireRole(models.RoleAdmin, lookup)
}
