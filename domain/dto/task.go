package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest createdBy ถูก decode ไว้เฉยๆ แล้วทิ้ง owner มาจาก token เสมอ
type CreateTaskRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"max=5000"`
	Status      string          `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string         `json:"dueDate" validate:"omitempty,isodate"`
	Tags        []string        `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	AssignedTo  *string         `json:"assignedTo" validate:"omitempty,uuid"`
	CreatedBy   json.RawMessage `json:"createdBy" validate:"-"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

type UpdateTaskRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Status      *string         `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority    *string         `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string         `json:"dueDate" validate:"omitempty,isodate"`
	Tags        *[]string       `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	AssignedTo  *string         `json:"assignedTo" validate:"omitempty,uuid"`
	CreatedBy   json.RawMessage `json:"createdBy" validate:"-"`
}

func (r *UpdateTaskRequest) Normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		r.Description = &desc
	}
}

type TaskListQuery struct {
	Page     int    `query:"page" validate:"min=1,max=100000"`
	Limit    int    `query:"limit" validate:"min=1,max=100"`
	Status   string `query:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high"`
	Search   string `query:"search" validate:"max=100"`
	Sort     string `query:"sort" validate:"omitempty,oneof=createdAt -createdAt updatedAt -updatedAt dueDate -dueDate priority -priority status -status title -title"`
}

const DefaultTaskSort = "-createdAt"

func (q *TaskListQuery) ApplyDefaults() {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.Sort == "" {
		q.Sort = DefaultTaskSort
	}
}

func (q TaskListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Pagination PaginationMeta `json:"pagination"`
}
