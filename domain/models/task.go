package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID             uuid.UUID      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" bson:"_id"`
	Title          string         `gorm:"size:100;not null" bson:"title"`
	Description    string         `gorm:"type:text" bson:"description"`
	Status         string         `gorm:"size:20;default:'todo';index" bson:"status"`
	Priority       string         `gorm:"size:10;default:'medium';index" bson:"priority"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null;index" bson:"createdBy"` // owner, immutable
	AssignedTo     *uuid.UUID     `gorm:"type:uuid;index" bson:"assignedTo,omitempty"`
	DueDate        *time.Time     `bson:"dueDate,omitempty"`
	Tags           pq.StringArray `gorm:"type:text[]" bson:"tags"`
	IsCompleted    bool           `gorm:"default:false" bson:"isCompleted"`
	CompletedAt    *time.Time     `bson:"completedAt,omitempty"`
	ReminderSentAt *time.Time     `bson:"reminderSentAt,omitempty"`
	CreatedAt      time.Time      `gorm:"index" bson:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}

// MarkCompleted ตั้ง completion ครั้งเดียวเท่านั้น (ครั้งแรกที่ status เป็น done)
func (t *Task) MarkCompleted(now time.Time) bool {
	if t.CompletedAt != nil {
		return false
	}
	t.CompletedAt = &now
	t.IsCompleted = true
	return true
}

func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func IsValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
