package serviceimpl

import (
	"context"
	"fmt"
	"time"

	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
)

// ReminderServiceImpl query ข้าม owner แต่ event ส่งถึง owner ของ task เท่านั้น
type ReminderServiceImpl struct {
	taskRepo  repositories.TaskRepository
	publisher ports.TaskEventPublisher
	window    time.Duration
	batchSize int
	now       func() time.Time
}

func NewReminderService(taskRepo repositories.TaskRepository, publisher ports.TaskEventPublisher, window time.Duration, batchSize int) services.ReminderService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ReminderServiceImpl{
		taskRepo:  taskRepo,
		publisher: publisher,
		window:    window,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (s *ReminderServiceImpl) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()

	tasks, err := s.taskRepo.ListDueForReminder(ctx, now.Add(s.window), s.batchSize)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tasks due for reminder", "error", err)
		return 0, fmt.Errorf("list due tasks: %w", err)
	}

	sent := 0
	for _, task := range tasks {
		publishTaskEvent(ctx, s.publisher, newTaskEvent(ports.TaskEventDueSoon, task, now))

		if err := s.taskRepo.MarkReminderSent(ctx, task.ID, now); err != nil {
			logger.ErrorContext(ctx, "Failed to mark reminder sent", "task_id", task.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		logger.InfoContext(ctx, "Due reminders sent", "count", sent)
	}
	return sent, nil
}
