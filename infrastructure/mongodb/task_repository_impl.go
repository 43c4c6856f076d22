package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/domain/models"
	"taskflow/domain/repositories"
)

var taskSortFields = map[string]string{
	repositories.TaskSortCreatedAt: "createdAt",
	repositories.TaskSortUpdatedAt: "updatedAt",
	repositories.TaskSortDueDate:   "dueDate",
	repositories.TaskSortPriority:  "priority",
	repositories.TaskSortStatus:    "status",
	repositories.TaskSortTitle:     "title",
}

type TaskRepositoryImpl struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) repositories.TaskRepository {
	return &TaskRepositoryImpl{collection: db.Collection(tasksCollection)}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	_, err := r.collection.InsertOne(ctx, task)
	return translateError(err)
}

func (r *TaskRepositoryImpl) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "createdBy": ownerID}).Decode(&task)
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repositories.TaskFilter) ([]*models.Task, int64, error) {
	query := ownerTaskFilter(ownerID, filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translateError(err)
	}

	opts := options.Find().
		SetSort(taskSort(filter.SortBy, filter.SortDesc)).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer cursor.Close(ctx)

	tasks := []*models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	update := bson.M{"$set": bson.M{
		"title":          task.Title,
		"description":    task.Description,
		"status":         task.Status,
		"priority":       task.Priority,
		"assignedTo":     task.AssignedTo,
		"dueDate":        task.DueDate,
		"tags":           task.Tags,
		"isCompleted":    task.IsCompleted,
		"completedAt":    task.CompletedAt,
		"reminderSentAt": task.ReminderSentAt,
		"updatedAt":      task.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": task.ID, "createdBy": task.CreatedBy}, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "createdBy": ownerID})
	if err != nil {
		return translateError(err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]*models.Task, error) {
	query := bson.M{
		"isCompleted":    false,
		"dueDate":        bson.M{"$ne": nil, "$lte": dueBefore},
		"reminderSentAt": nil,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "dueDate", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	tasks := []*models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminderSentAt": at}})
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ownerTaskFilter search ถูก QuoteMeta ให้เป็น substring ตรงตัว
func ownerTaskFilter(ownerID uuid.UUID, filter repositories.TaskFilter) bson.M {
	query := bson.M{"createdBy": ownerID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}

func taskSort(sortBy string, desc bool) bson.D {
	field, ok := taskSortFields[sortBy]
	if !ok {
		field, desc = "createdAt", true
	}
	direction := 1
	if desc {
		direction = -1
	}
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}}
}
