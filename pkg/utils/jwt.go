package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskflow/domain/models"
	"taskflow/pkg/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing token")
)

type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserContext identity ของผู้เรียกที่ middleware เก็บไว้ใน c.Locals("user")
type UserContext struct {
	ID    uuid.UUID
	Email string
	Role  string
}

func (u *UserContext) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

// TokenManager สร้างครั้งเดียวจาก config แล้วส่งต่อด้วย pointer
type TokenManager struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg *config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		expiration: cfg.Expiration,
		now:        time.Now,
	}
}

func (m *TokenManager) Expiration() time.Duration {
	return m.expiration
}

// Issue ออก token HS256 ที่หมดอายุใน now + expiration
func (m *TokenManager) Issue(user *models.User) (string, error) {
	now := m.now()
	claims := JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify token ที่ exp ผ่านไปแล้วได้ ErrExpiredToken เสมอ ไม่ว่า signature จะถูกหรือไม่
func (m *TokenManager) Verify(tokenString string) (*UserContext, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	unverified := &JWTClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, unverified); err != nil {
		return nil, ErrInvalidToken
	}
	if unverified.ExpiresAt != nil && !m.now().Before(unverified.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &UserContext{
		ID:    userID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// ExtractTokenFromHeader คืน "" ถ้า header ไม่ใช่รูปแบบ "Bearer <token>"
func ExtractTokenFromHeader(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func GetUserFromContext(c *fiber.Ctx) (*UserContext, error) {
	userCtx, ok := c.Locals("user").(*UserContext)
	if !ok || userCtx == nil {
		return nil, ErrMissingToken
	}
	return userCtx, nil
}
