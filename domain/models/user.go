package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" bson:"_id"`
	Email       string     `gorm:"uniqueIndex;not null" bson:"email"`
	Password    string     `gorm:"not null" bson:"password" json:"-"` // bcrypt hash
	Name        string     `gorm:"not null" bson:"name"`
	Bio         string     `bson:"bio"`
	Avatar      string     `bson:"avatar"`
	Role        string     `gorm:"default:'user'" bson:"role"` // user, admin
	IsActive    bool       `gorm:"default:true" bson:"isActive"`
	LastLoginAt *time.Time `bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin ตรวจสอบว่าเป็น admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
