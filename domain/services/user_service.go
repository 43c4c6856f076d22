package services

import (
	"context"
	"io"

	"taskflow/domain/dto"
	"taskflow/domain/models"

	"github.com/google/uuid"
)

// AvatarUpload ไฟล์รูปที่ handler อ่านมาจาก multipart form
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (string, *models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (string, *models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file *AvatarUpload) (*models.User, error)

	// Admin
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error)
}
