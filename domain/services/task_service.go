package services

import (
	"context"

	"taskflow/domain/dto"
	"taskflow/domain/models"

	"github.com/google/uuid"
)

// TaskService ทุก method scope ด้วย ownerID ของผู้เรียก
type TaskService interface {
	ListTasks(ctx context.Context, ownerID uuid.UUID, query *dto.TaskListQuery) ([]*models.Task, int64, error)
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, ownerID uuid.UUID, req *dto.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// ReminderService ส่ง task.due_soon ให้ task ที่ใกล้ครบกำหนด
type ReminderService interface {
	SendDueReminders(ctx context.Context) (int, error)
}
