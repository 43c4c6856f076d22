package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/domain/dto"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type AuthHandler struct {
	userService services.UserService
}

func NewAuthHandler(userService services.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.RegisterRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	logger.InfoContext(ctx, "Registration attempt", "email", req.Email)

	token, user, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateIdentity) {
			logger.WarnContext(ctx, "Registration rejected, email taken", "email", req.Email)
			return utils.DuplicateIdentityResponse(c, "User already exists")
		}
		logger.ErrorContext(ctx, "Registration failed", "email", req.Email, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)

	return utils.CreatedResponse(c, &dto.AuthResponse{
		Token: token,
		User:  *dto.UserToUserResponse(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	token, user, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			logger.WarnContext(ctx, "Login failed", "email", req.Email)
			return utils.InvalidCredentialsResponse(c)
		}
		logger.ErrorContext(ctx, "Login error", "email", req.Email, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	logger.InfoContext(ctx, "Login successful", "user_id", user.ID)

	return utils.SuccessResponse(c, &dto.AuthResponse{
		Token: token,
		User:  *dto.UserToUserResponse(user),
	})
}

// Logout token เป็น stateless ฝั่ง client ลบเอง
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, &dto.LogoutResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	profile, err := h.userService.GetProfile(ctx, user.ID)
	if err != nil {
		return userErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.UserToUserResponse(profile))
}

const authFailedMessage = "Not authorized, token failed"
