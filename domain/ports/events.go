package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Task Event Port - แจ้ง event หลัง mutation สำเร็จ (NATS, WebSocket)
// ═══════════════════════════════════════════════════════════════════════════════

type TaskEventType string

const (
	TaskEventCreated   TaskEventType = "task.created"
	TaskEventUpdated   TaskEventType = "task.updated"
	TaskEventCompleted TaskEventType = "task.completed"
	TaskEventDeleted   TaskEventType = "task.deleted"
	TaskEventDueSoon   TaskEventType = "task.due_soon"
)

// TaskEvent - Plain struct (ไม่มี NATS dependency)
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     uuid.UUID     `json:"taskId"`
	OwnerID    uuid.UUID     `json:"ownerId"`
	Title      string        `json:"title,omitempty"`
	Status     string        `json:"status,omitempty"`
	DueDate    *time.Time    `json:"dueDate,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// TaskEventPublisher error ที่คืนมาจะถูก log เท่านั้น ไม่ทำให้ request fail
type TaskEventPublisher interface {
	PublishTaskEvent(ctx context.Context, event *TaskEvent) error
}
