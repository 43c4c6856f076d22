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
	"github.com/lib/pq"
)

type TaskServiceImpl struct {
	taskRepo  repositories.TaskRepository
	userRepo  repositories.UserRepository
	publisher ports.TaskEventPublisher
	now       func() time.Time
}

func NewTaskService(taskRepo repositories.TaskRepository, userRepo repositories.UserRepository, publisher ports.TaskEventPublisher) services.TaskService {
	return &TaskServiceImpl{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID, query *dto.TaskListQuery) ([]*models.Task, int64, error) {
	query.ApplyDefaults()

	sortBy, sortDesc := parseSort(query.Sort)
	filter := repositories.TaskFilter{
		Status:   query.Status,
		Priority: query.Priority,
		Search:   query.Search,
		SortBy:   sortBy,
		SortDesc: sortDesc,
		Offset:   query.Offset(),
		Limit:    query.Limit,
	}

	tasks, total, err := s.taskRepo.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tasks", "owner_id", ownerID, "error", err)
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByIDForOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.mapTaskError(ctx, taskID, err)
	}
	return task, nil
}

// CreateTask owner มาจาก caller เสมอ createdBy ใน body ถูกทิ้ง
func (s *TaskServiceImpl) CreateTask(ctx context.Context, ownerID uuid.UUID, req *dto.CreateTaskRequest) (*models.Task, error) {
	req.Normalize()

	now := s.now()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		CreatedBy:   ownerID,
		Tags:        normalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if req.DueDate != nil {
		due, err := utils.ParseISODate(*req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("parse due date: %w", err)
		}
		task.DueDate = &due
	}

	if req.AssignedTo != nil {
		assignee, err := s.resolveAssignee(ctx, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = &assignee
	}

	completed := false
	if task.Status == models.TaskStatusDone {
		completed = task.MarkCompleted(now)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to create task", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("create task: %w", err)
	}

	logger.InfoContext(ctx, "Task created", "task_id", task.ID, "owner_id", ownerID)

	s.publish(ctx, ports.TaskEventCreated, task)
	if completed {
		s.publish(ctx, ports.TaskEventCompleted, task)
	}
	return task, nil
}

// UpdateTask completedAt ถูกตั้งครั้งเดียวตอน status เป็น done ครั้งแรก
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error) {
	req.Normalize()

	task, err := s.taskRepo.GetByIDForOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.mapTaskError(ctx, taskID, err)
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Tags != nil {
		task.Tags = normalizeTags(*req.Tags)
	}
	if req.DueDate != nil {
		due, err := utils.ParseISODate(*req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("parse due date: %w", err)
		}
		if task.DueDate == nil || !task.DueDate.Equal(due) {
			task.ReminderSentAt = nil
		}
		task.DueDate = &due
	}
	if req.AssignedTo != nil {
		assignee, err := s.resolveAssignee(ctx, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = &assignee
	}

	now := s.now()
	completed := false
	if task.Status == models.TaskStatusDone {
		completed = task.MarkCompleted(now)
	}
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, s.mapTaskError(ctx, taskID, err)
	}

	logger.InfoContext(ctx, "Task updated", "task_id", taskID, "owner_id", ownerID, "completed", completed)

	s.publish(ctx, ports.TaskEventUpdated, task)
	if completed {
		s.publish(ctx, ports.TaskEventCompleted, task)
	}
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	task, err := s.taskRepo.GetByIDForOwner(ctx, taskID, ownerID)
	if err != nil {
		return s.mapTaskError(ctx, taskID, err)
	}

	if err := s.taskRepo.DeleteForOwner(ctx, taskID, ownerID); err != nil {
		return s.mapTaskError(ctx, taskID, err)
	}

	logger.InfoContext(ctx, "Task deleted", "task_id", taskID, "owner_id", ownerID)

	s.publish(ctx, ports.TaskEventDeleted, task)
	return nil
}

func (s *TaskServiceImpl) resolveAssignee(ctx context.Context, raw string) (uuid.UUID, error) {
	assignee, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.ErrInvalidAssignee
	}
	if _, err := s.userRepo.GetByID(ctx, assignee); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return uuid.Nil, services.ErrInvalidAssignee
		}
		return uuid.Nil, fmt.Errorf("load assignee: %w", err)
	}
	return assignee, nil
}

func (s *TaskServiceImpl) mapTaskError(ctx context.Context, taskID uuid.UUID, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		logger.WarnContext(ctx, "Task not found", "task_id", taskID)
		return services.ErrTaskNotFound
	}
	logger.ErrorContext(ctx, "Task store error", "task_id", taskID, "error", err)
	return fmt.Errorf("task store: %w", err)
}

func (s *TaskServiceImpl) publish(ctx context.Context, eventType ports.TaskEventType, task *models.Task) {
	publishTaskEvent(ctx, s.publisher, newTaskEvent(eventType, task, s.now()))
}

func newTaskEvent(eventType ports.TaskEventType, task *models.Task, at time.Time) *ports.TaskEvent {
	return &ports.TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		OwnerID:    task.CreatedBy,
		Title:      task.Title,
		Status:     task.Status,
		DueDate:    task.DueDate,
		OccurredAt: at,
	}
}

// publishTaskEvent error จาก publisher ถูก log เท่านั้น
func publishTaskEvent(ctx context.Context, publisher ports.TaskEventPublisher, event *ports.TaskEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishTaskEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish task event", "type", event.Type, "task_id", event.TaskID, "error", err)
	}
}

// parseSort "-createdAt" -> (createdAt, desc)
func parseSort(sort string) (string, bool) {
	desc := strings.HasPrefix(sort, "-")
	field := strings.TrimPrefix(sort, "-")
	if field == "" {
		return repositories.TaskSortCreatedAt, true
	}
	return field, desc
}

// normalizeTags trim แล้วตัดค่าว่างและค่าที่ซ้ำกันตรงตัว โดยคงลำดับเดิม
func normalizeTags(tags []string) pq.StringArray {
	result := pq.StringArray{}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		normalized := strings.TrimSpace(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
