package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/domain/dto"
	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UserServiceImpl struct {
	userRepo      repositories.UserRepository
	tokens        *utils.TokenManager
	storage       ports.StoragePort
	bcryptCost    int
	maxAvatarSize int64
	dummyHash     []byte
	now           func() time.Time
}

func NewUserService(userRepo repositories.UserRepository, tokens *utils.TokenManager, storage ports.StoragePort, bcryptCost int, maxAvatarSize int64) services.UserService {
	if bcryptCost < bcrypt.DefaultCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// hash สำหรับเทียบตอนไม่พบ user ให้เวลาตอบใกล้เคียงกับรหัสผ่านผิด
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("taskflow-dummy-password"), bcryptCost)

	return &UserServiceImpl{
		userRepo:      userRepo,
		tokens:        tokens,
		storage:       storage,
		bcryptCost:    bcryptCost,
		maxAvatarSize: maxAvatarSize,
		dummyHash:     dummyHash,
		now:           time.Now,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (string, *models.User, error) {
	req.Normalize()

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.ErrorContext(ctx, "Failed to check existing email", "error", err)
		return "", nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		logger.WarnContext(ctx, "Email already registered", "email", req.Email)
		return "", nil, services.ErrDuplicateIdentity
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:          uuid.New(),
		Email:       req.Email,
		Password:    string(hashedPassword),
		Name:        req.Name,
		Role:        models.RoleUser,
		IsActive:    true,
		LastLoginAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			logger.WarnContext(ctx, "Email already registered (unique index)", "email", req.Email)
			return "", nil, services.ErrDuplicateIdentity
		}
		logger.ErrorContext(ctx, "Failed to create user in database", "error", err)
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue token", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return token, user, nil
}

// Login ไม่พบ user, user ถูกปิด และรหัสผ่านผิด คืน ErrInvalidCredentials เหมือนกันหมด
func (s *UserServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (string, *models.User, error) {
	req.Normalize()

	user, err := s.userRepo.GetActiveByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			logger.WarnContext(ctx, "Login failed - no active account", "email", req.Email)
			return "", nil, services.ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "Failed to load user for login", "error", err)
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.WarnContext(ctx, "Login failed - invalid password", "user_id", user.ID)
		return "", nil, services.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.ErrorContext(ctx, "Failed to update last login", "user_id", user.ID, "error", err)
		return "", nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now

	token, err := s.tokens.Issue(user)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue token", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, userID)
}

// UpdateProfile apply เฉพาะ name, bio/avatar ถูกรับแต่ไม่เปลี่ยน
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	req.Normalize()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, userID, user); err != nil {
		return nil, s.mapUpdateError(ctx, userID, err)
	}

	logger.InfoContext(ctx, "User profile updated", "user_id", userID)
	return user, nil
}

func (s *UserServiceImpl) UploadAvatar(ctx context.Context, userID uuid.UUID, file *services.AvatarUpload) (*models.User, error) {
	if file == nil || file.Content == nil {
		return nil, services.ErrInvalidAvatar
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if !allowedAvatarTypes[contentType] {
		logger.WarnContext(ctx, "Avatar rejected - content type", "user_id", userID, "content_type", file.ContentType)
		return nil, services.ErrInvalidAvatar
	}
	if file.Size <= 0 || (s.maxAvatarSize > 0 && file.Size > s.maxAvatarSize) {
		logger.WarnContext(ctx, "Avatar rejected - size", "user_id", userID, "size", file.Size)
		return nil, services.ErrInvalidAvatar
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := utils.AvatarObjectKey(userID, file.Filename)
	url, err := s.storage.UploadFile(ctx, file.Content, file.Size, key, contentType)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to store avatar", "user_id", userID, "provider", s.storage.GetProviderName(), "error", err)
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	user.Avatar = url
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, userID, user); err != nil {
		// ไม่ทิ้งไฟล์ค้างถ้าบันทึก user ไม่สำเร็จ
		if delErr := s.storage.DeleteFile(ctx, key); delErr != nil {
			logger.WarnContext(ctx, "Failed to remove orphaned avatar", "key", key, "error", delErr)
		}
		return nil, s.mapUpdateError(ctx, userID, err)
	}

	logger.InfoContext(ctx, "Avatar uploaded", "user_id", userID, "key", key)
	return user, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	users, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list users", "error", err)
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to count users", "error", err)
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, count, nil
}

func (s *UserServiceImpl) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, userID, user); err != nil {
		return nil, s.mapUpdateError(ctx, userID, err)
	}

	logger.InfoContext(ctx, "User active flag changed", "user_id", userID, "is_active", active)
	return user, nil
}

func (s *UserServiceImpl) getUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.WarnContext(ctx, "User not found", "user_id", userID)
			return nil, services.ErrUserNotFound
		}
		logger.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserServiceImpl) mapUpdateError(ctx context.Context, userID uuid.UUID, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrUserNotFound
	}
	logger.ErrorContext(ctx, "Failed to update user", "user_id", userID, "error", err)
	return fmt.Errorf("update user: %w", err)
}
