package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/domain/models"
	"taskflow/domain/repositories"
)

var taskSortColumns = map[string]string{
	repositories.TaskSortCreatedAt: "created_at",
	repositories.TaskSortUpdatedAt: "updated_at",
	repositories.TaskSortDueDate:   "due_date",
	repositories.TaskSortPriority:  "priority",
	repositories.TaskSortStatus:    "status",
	repositories.TaskSortTitle:     "title",
}

// created_by ไม่อยู่ในรายการ owner เปลี่ยนไม่ได้
var taskUpdatableColumns = []string{
	"title", "description", "status", "priority", "assigned_to", "due_date",
	"tags", "is_completed", "completed_at", "reminder_sent_at", "updated_at",
}

type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) repositories.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	return translateError(r.db.WithContext(ctx).Create(task).Error)
}

func (r *TaskRepositoryImpl) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repositories.TaskFilter) ([]*models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("created_by = ?", ownerID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var tasks []*models.Task
	err := query.
		Order(sortClause(filter.SortBy, filter.SortDesc)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	return tasks, total, nil
}

// Update match ทั้ง id และ created_by ไม่พบคืน ErrNotFound
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND created_by = ?", task.ID, task.CreatedBy).
		Select(taskUpdatableColumns).
		Updates(task)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, ownerID).
		Delete(&models.Task{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Where("is_completed = ? AND due_date IS NOT NULL AND due_date <= ? AND reminder_sent_at IS NULL", false, dueBefore).
		Order("due_date ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, translateError(err)
}

func (r *TaskRepositoryImpl) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", id).
		UpdateColumn("reminder_sent_at", at)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func sortClause(sortBy string, desc bool) clause.OrderByColumn {
	column, ok := taskSortColumns[sortBy]
	if !ok {
		column, desc = "created_at", true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike ทำให้ % และ _ ใน search term เป็นตัวอักษรธรรมดา
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
