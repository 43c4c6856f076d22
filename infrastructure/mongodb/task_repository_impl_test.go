package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/domain/models"
	"taskflow/domain/repositories"
)

func TestOwnerTaskFilter(t *testing.T) {
	owner := uuid.New()

	query := ownerTaskFilter(owner, repositories.TaskFilter{})
	assert.Equal(t, bson.M{"createdBy": owner}, query)

	query = ownerTaskFilter(owner, repositories.TaskFilter{Status: "done", Priority: "high", Search: "a.b*"})
	assert.Equal(t, "done", query["status"])
	assert.Equal(t, "high", query["priority"])

	or, ok := query["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	title := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `a\.b\*`, title.Pattern)
	assert.Equal(t, "i", title.Options)
}

func TestTaskSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}}, taskSort("dueDate", false))
	assert.Equal(t, bson.D{{Key: "title", Value: -1}, {Key: "_id", Value: 1}}, taskSort("title", true))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}, taskSort("$where", false))
}

func TestUUIDCodec(t *testing.T) {
	registry := NewRegistry()
	assignee := uuid.New()
	task := models.Task{ID: uuid.New(), CreatedBy: uuid.New(), AssignedTo: &assignee, Title: "codec"}

	data, err := bson.MarshalWithRegistry(registry, task)
	require.NoError(t, err)

	raw := bson.Raw(data)
	subtype, bin := raw.Lookup("_id").Binary()
	assert.Equal(t, bson.TypeBinaryUUID, subtype)
	assert.Equal(t, task.ID[:], bin)

	var decoded models.Task
	require.NoError(t, bson.UnmarshalWithRegistry(registry, data, &decoded))
	assert.Equal(t, task.ID, decoded.ID)
	assert.Equal(t, task.CreatedBy, decoded.CreatedBy)
	require.NotNil(t, decoded.AssignedTo)
	assert.Equal(t, assignee, *decoded.AssignedTo)
}

func binaryUUID(id uuid.UUID) primitive.Binary {
	return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: id[:]}
}

func newMockTest(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().
		ClientType(mtest.Mock).
		ClientOptions(options.Client().SetRegistry(NewRegistry())))
}

func TestTaskRepository_ListByOwner(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("filters by owner and pages", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		owner := uuid.New()
		taskID := uuid.New()
		ns := mt.DB.Name() + "." + tasksCollection
		created := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(21)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: binaryUUID(taskID)},
				{Key: "title", Value: "Write report"},
				{Key: "status", Value: models.TaskStatusDone},
				{Key: "createdBy", Value: binaryUUID(owner)},
				{Key: "tags", Value: bson.A{"C++", "Q3 Review"}},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created)},
			}),
		)

		tasks, total, err := repo.ListByOwner(context.Background(), owner, repositories.TaskFilter{
			Status: models.TaskStatusDone,
			SortBy: repositories.TaskSortTitle,
			Offset: 20,
			Limit:  10,
		})
		require.NoError(mt, err)
		assert.Equal(mt, int64(21), total)
		require.Len(mt, tasks, 1)
		assert.Equal(mt, taskID, tasks[0].ID)
		assert.Equal(mt, owner, tasks[0].CreatedBy)
		assert.Equal(mt, []string{"C++", "Q3 Review"}, []string(tasks[0].Tags))
		assert.True(mt, created.Equal(tasks[0].CreatedAt))

		count := mt.GetStartedEvent()
		require.NotNil(mt, count)
		assert.Equal(mt, "aggregate", count.CommandName)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		require.Equal(mt, "find", find.CommandName)

		filter := find.Command.Lookup("filter").Document()
		subtype, data := filter.Lookup("createdBy").Binary()
		assert.Equal(mt, bson.TypeBinaryUUID, subtype)
		assert.Equal(mt, owner[:], data)
		assert.Equal(mt, models.TaskStatusDone, filter.Lookup("status").StringValue())
		assert.Equal(mt, int64(20), find.Command.Lookup("skip").Int64())
		assert.Equal(mt, int64(10), find.Command.Lookup("limit").Int64())

		sort := find.Command.Lookup("sort").Document()
		assert.Equal(mt, int64(1), sort.Lookup("title").AsInt64())
	})
}

func TestTaskRepository_Update(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("matches id and owner", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		task := &models.Task{ID: uuid.New(), CreatedBy: uuid.New(), Title: "Write report"}

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(1)},
		))
		require.NoError(mt, repo.Update(context.Background(), task))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "update", evt.CommandName)

		updates, err := evt.Command.Lookup("updates").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, updates, 1)
		stmt := updates[0].Document()

		q := stmt.Lookup("q").Document()
		_, id := q.Lookup("_id").Binary()
		_, owner := q.Lookup("createdBy").Binary()
		assert.Equal(mt, task.ID[:], id)
		assert.Equal(mt, task.CreatedBy[:], owner)

		set := stmt.Lookup("u").Document().Lookup("$set").Document()
		assert.Equal(mt, "Write report", set.Lookup("title").StringValue())
		_, err = set.LookupErr("createdBy")
		assert.Error(mt, err, "owner is never rewritten")
	})

	mt.Run("not found when owner differs", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))
		err := repo.Update(context.Background(), &models.Task{ID: uuid.New(), CreatedBy: uuid.New()})
		assert.ErrorIs(mt, err, repositories.ErrNotFound)
	})
}
