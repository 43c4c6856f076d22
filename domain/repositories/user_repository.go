package repositories

import (
	"context"
	"errors"
	"taskflow/domain/models"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound คืนจากทุก repository implementation เมื่อไม่พบ record
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey คืนเมื่อ unique index ชน (เช่น email ซ้ำ)
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}
