package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/domain/dto"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var query dto.TaskListQuery
	if ok, err := parseQuery(c, &query, query.ApplyDefaults); !ok {
		return err
	}

	tasks, total, err := h.taskService.ListTasks(ctx, user.ID, &query)
	if err != nil {
		return taskErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, &dto.TaskListResponse{
		Tasks:      dto.TasksToTaskResponses(tasks),
		Pagination: dto.NewPaginationMeta(query.Page, query.Limit, total),
	})
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return utils.NotFoundResponse(c, "Task not found")
	}

	task, err := h.taskService.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return taskErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.CreateTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	task, err := h.taskService.CreateTask(ctx, user.ID, &req)
	if err != nil {
		return taskErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "Task created", "task_id", task.ID, "user_id", user.ID)
	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return utils.NotFoundResponse(c, "Task not found")
	}

	var req dto.UpdateTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	task, err := h.taskService.UpdateTask(ctx, user.ID, taskID, &req)
	if err != nil {
		return taskErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "Task updated", "task_id", task.ID, "status", task.Status)
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return utils.NotFoundResponse(c, "Task not found")
	}

	if err := h.taskService.DeleteTask(ctx, user.ID, taskID); err != nil {
		return taskErrorResponse(c, err)
	}

	logger.InfoContext(ctx, "Task deleted", "task_id", taskID)
	return utils.SuccessResponse(c, &dto.MessageResponse{Message: "Task removed"})
}

// taskErrorResponse ไม่พบกับไม่ใช่เจ้าของตอบเหมือนกัน
func taskErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return utils.NotFoundResponse(c, "Task not found")
	case errors.Is(err, services.ErrInvalidAssignee):
		return utils.ValidationErrorResponse(c, []utils.FieldError{{
			Field:   "assignedTo",
			Tag:     "exists",
			Message: "assignedTo must reference an existing user",
		}})
	default:
		logger.ErrorContext(c.UserContext(), "Task operation failed", "path", c.Path(), "error", err)
		return utils.InternalServerErrorResponse(c)
	}
}
