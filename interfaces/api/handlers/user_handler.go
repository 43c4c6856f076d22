package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/domain/dto"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

const avatarFormField = "avatar"

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
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

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.UpdateProfileRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	updated, err := h.userService.UpdateProfile(ctx, user.ID, &req)
	if err != nil {
		return userErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "Profile updated", "user_id", user.ID)
	return utils.SuccessResponse(c, dto.UserToUserResponse(updated))
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		logger.WarnContext(ctx, "Avatar file missing", "error", err)
		return utils.ValidationErrorResponse(c, []utils.FieldError{{
			Field:   avatarFormField,
			Tag:     "required",
			Message: "avatar is required",
		}})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open uploaded avatar", "error", err)
		return utils.InternalServerErrorResponse(c)
	}
	defer file.Close()

	updated, err := h.userService.UploadAvatar(ctx, user.ID, &services.AvatarUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAvatar) {
			return utils.ValidationErrorResponse(c, []utils.FieldError{{
				Field:   avatarFormField,
				Tag:     "image",
				Message: err.Error(),
			}})
		}
		return userErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "Avatar uploaded", "user_id", user.ID, "size", fileHeader.Size)
	return utils.SuccessResponse(c, dto.UserToUserResponse(updated))
}

// ListUsers admin
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var query dto.PageQuery
	if ok, err := parseQuery(c, &query, query.ApplyDefaults); !ok {
		return err
	}

	users, total, err := h.userService.ListUsers(ctx, query.Offset(), query.Limit)
	if err != nil {
		return userErrorResponse(c, err)
	}

	responses := make([]dto.UserResponse, len(users))
	for i, user := range users {
		responses[i] = *dto.UserToUserResponse(user)
	}

	return utils.SuccessResponse(c, &dto.UserListResponse{
		Users:      responses,
		Pagination: dto.NewPaginationMeta(query.Page, query.Limit, total),
	})
}

// SetUserStatus admin เปิด/ปิดบัญชี ปิดบัญชีตัวเองไม่ได้
func (h *UserHandler) SetUserStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	admin, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	userID, ok := parseIDParam(c, "id")
	if !ok {
		return utils.NotFoundResponse(c, "User not found")
	}

	var req dto.UpdateUserStatusRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if userID == admin.ID && !*req.IsActive {
		return utils.BadRequestResponse(c, "You cannot deactivate your own account")
	}

	updated, err := h.userService.SetActive(ctx, userID, *req.IsActive)
	if err != nil {
		return userErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "User status changed",
		"admin_id", admin.ID,
		"user_id", userID,
		"is_active", updated.IsActive,
	)
	return utils.SuccessResponse(c, dto.UserToUserResponse(updated))
}

func userErrorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrUserNotFound) {
		return utils.NotFoundResponse(c, "User not found")
	}
	logger.ErrorContext(c.UserContext(), "User operation failed", "path", c.Path(), "error", err)
	return utils.InternalServerErrorResponse(c)
}
