package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpdateProfileRequest รับ bio/avatar ได้ แต่ service จะ apply เฉพาะ name
type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Bio         string     `json:"bio"`
	Avatar      string     `json:"avatar"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}
