package repositories

import (
	"context"
	"taskflow/domain/models"
	"time"

	"github.com/google/uuid"
)

// TaskFilter เงื่อนไขการค้นหา task ของ owner คนเดียว
type TaskFilter struct {
	Status   string
	Priority string
	Search   string // case-insensitive substring บน title หรือ description
	SortBy   string // createdAt, updatedAt, dueDate, priority, status, title
	SortDesc bool
	Offset   int
	Limit    int
}

// TaskRepository ทุก method ที่รับ ownerID จะ filter ด้วย created_by เสมอ
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*models.Task, int64, error)
	Update(ctx context.Context, task *models.Task) error
	DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error

	// ListDueForReminder ใช้โดย reminder job เท่านั้น (ข้าม owner)
	ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]*models.Task, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

const (
	TaskSortCreatedAt = "createdAt"
	TaskSortUpdatedAt = "updatedAt"
	TaskSortDueDate   = "dueDate"
	TaskSortPriority  = "priority"
	TaskSortStatus    = "status"
	TaskSortTitle     = "title"
)
