package service_test

import (
	"context"
	"errors"
	"taskTrackerAPI/internal/models/task"
	"taskTrackerAPI/internal/repository"
	"taskTrackerAPI/internal/repository/task/inmemory"
	"taskTrackerAPI/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Insert(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Find(ctx context.Context, filter repository.Filter, page repository.Page) ([]*task.Task, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id primitive.ObjectID, upd task.Update) (int64, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	args := m.Called(ctx, id, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Close() {}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

func assertBusinessError(t *testing.T, err error, code string) *service.BusinessError {
	t.Helper()
	require.Error(t, err)
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "Expected BusinessError, got %v", err)
	assert.Equal(t, code, busErr.Code)
	return busErr
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_CreateTask тестирует создание задачи
func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - defaults and normalized tags", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.Title == "Write report" && t.Status == task.StatusPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*task.Task).ID = primitive.NewObjectID()
		}).Return(nil)

		svc := service.NewTaskService(mockRepo)
		result, err := svc.CreateTask(ctx, task.Payload{
			"title": "Write report",
			"tags":  []any{"Urgent", "urgent", "Backend"},
		})

		require.NoError(t, err)
		assert.False(t, result.ID.IsZero())
		assert.Equal(t, task.StatusPending, result.Status)
		assert.Equal(t, []string{"urgent", "backend"}, result.Tags)
		assert.Equal(t, result.CreatedAt, result.UpdatedAt)
		mockRepo.AssertExpectations(t)
	})

	tests := []struct {
		name           string
		data           task.Payload
		code           string
		expectedErrors []string
	}{
		{
			name: "error - empty body",
			data: task.Payload{},
			code: service.CodeMissingField,
		},
		{
			name:           "error - empty title",
			data:           task.Payload{"title": ""},
			code:           service.CodeValidation,
			expectedErrors: []string{"Title is required"},
		},
		{
			name:           "error - unknown status",
			data:           task.Payload{"title": "Buy milk", "status": "done"},
			code:           service.CodeValidation,
			expectedErrors: []string{"Status must be one of: pending, in_progress, completed"},
		},
		{
			name: "error - all problems reported",
			data: task.Payload{"status": "done", "tags": []any{"bad tag"}},
			code: service.CodeValidation,
			expectedErrors: []string{
				"Title is required",
				"Status must be one of: pending, in_progress, completed",
				"Invalid tag: Tag contains invalid characters",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			svc := service.NewTaskService(mockRepo)

			_, err := svc.CreateTask(ctx, tt.data)

			busErr := assertBusinessError(t, err, tt.code)
			if tt.expectedErrors != nil {
				assert.Equal(t, tt.expectedErrors, busErr.Details["errors"])
			}
			mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}

	t.Run("error - repository failure", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

		svc := service.NewTaskService(mockRepo)
		_, err := svc.CreateTask(ctx, task.Payload{"title": "x"})

		require.Error(t, err)
		_, ok := service.AsBusinessError(err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "db down")
	})
}

// TestTaskService_ListTasks тестирует выборку с фильтрами
func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	limit := int64(2)
	skip := int64(1)

	tagged := task.New("tagged", task.WithTags([]string{"urgent"}))
	plain := task.New("plain")

	t.Run("defaults and total from count", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Find", mock.Anything, repository.Filter{}, repository.Page{Skip: 0, Limit: 100}).
			Return([]*task.Task{tagged, plain}, nil)
		mockRepo.On("Count", mock.Anything, repository.Filter{}).Return(int64(42), nil)

		svc := service.NewTaskService(mockRepo)
		result, err := svc.ListTasks(ctx, service.ListQuery{})

		require.NoError(t, err)
		assert.Len(t, result.Tasks, 2)
		assert.Equal(t, int64(42), result.Total)
		assert.Equal(t, int64(100), result.Limit)
		assert.Equal(t, int64(0), result.Skip)
		mockRepo.AssertExpectations(t)
	})

	t.Run("tag filter - total is page local", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		filter := repository.Filter{Status: task.StatusPending}
		mockRepo.On("Find", mock.Anything, filter, repository.Page{Skip: skip, Limit: limit}).
			Return([]*task.Task{tagged, plain}, nil)

		svc := service.NewTaskService(mockRepo)
		result, err := svc.ListTasks(ctx, service.ListQuery{
			Status: "pending",
			Tag:    "URGENT",
			Limit:  &limit,
			Skip:   &skip,
		})

		require.NoError(t, err)
		require.Len(t, result.Tasks, 1)
		assert.Equal(t, "tagged", result.Tasks[0].Title)
		assert.Equal(t, int64(1), result.Total)
		mockRepo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
	})

	t.Run("error - negative pagination", func(t *testing.T) {
		negative := int64(-1)
		svc := service.NewTaskService(new(MockTaskRepository))

		_, err := svc.ListTasks(ctx, service.ListQuery{Limit: &negative, Skip: &negative})

		busErr := assertBusinessError(t, err, service.CodeValidation)
		assert.Len(t, busErr.Details["errors"], 2)
	})

	t.Run("default limit option", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Find", mock.Anything, repository.Filter{}, repository.Page{Limit: 10}).Return([]*task.Task{}, nil)
		mockRepo.On("Count", mock.Anything, repository.Filter{}).Return(int64(0), nil)

		svc := service.NewTaskService(mockRepo, service.WithDefaultLimit(10))
		result, err := svc.ListTasks(ctx, service.ListQuery{})

		require.NoError(t, err)
		assert.Equal(t, int64(10), result.Limit)
		mockRepo.AssertExpectations(t)
	})
}

// TestTaskService_GetTask тестирует получение задачи
func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		existing := task.New("existing")
		existing.ID = taskID
		mockRepo.On("FindByID", mock.Anything, taskID).Return(existing, nil)

		svc := service.NewTaskService(mockRepo)
		result, err := svc.GetTask(ctx, taskID.Hex())

		require.NoError(t, err)
		assert.Equal(t, taskID, result.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		svc := service.NewTaskService(mockRepo)
		_, err := svc.GetTask(ctx, taskID.Hex())

		assertBusinessError(t, err, service.CodeNotFound)
	})

	t.Run("error - invalid id never reaches repository", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo)

		_, err := svc.GetTask(ctx, "not-an-id")

		assertBusinessError(t, err, service.CodeInvalidID)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

// TestTaskService_UpdateTask тестирует обновление задачи
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	t.Run("success - only whitelisted fields", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		updated := task.New("New Title")
		updated.ID = taskID

		mockRepo.On("Update", mock.Anything, taskID, mock.MatchedBy(func(u task.Update) bool {
			return u.Title != nil && *u.Title == "New Title" &&
				u.Status != nil && *u.Status == task.StatusCompleted &&
				u.Description == nil && u.Tags == nil && !u.UpdatedAt.IsZero()
		})).Return(int64(1), nil)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(updated, nil)

		svc := service.NewTaskService(mockRepo)
		result, err := svc.UpdateTask(ctx, taskID.Hex(), task.Payload{
			"title":      "New Title",
			"status":     "completed",
			"_id":        "should-be-dropped",
			"created_at": "should-be-dropped",
		})

		require.NoError(t, err)
		assert.Equal(t, "New Title", result.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("success - title not required", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Update", mock.Anything, taskID, mock.Anything).Return(int64(1), nil)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(task.New("kept"), nil)

		svc := service.NewTaskService(mockRepo)
		_, err := svc.UpdateTask(ctx, taskID.Hex(), task.Payload{"status": "in_progress"})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	tests := []struct {
		name string
		id   string
		data task.Payload
		code string
	}{
		{name: "error - invalid id", id: "123", data: task.Payload{"title": "x"}, code: service.CodeInvalidID},
		{name: "error - empty body", id: taskID.Hex(), data: task.Payload{}, code: service.CodeMissingField},
		{name: "error - invalid status", id: taskID.Hex(), data: task.Payload{"status": "done"}, code: service.CodeValidation},
		{name: "error - invalid tag", id: taskID.Hex(), data: task.Payload{"tags": []any{"has space"}}, code: service.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			svc := service.NewTaskService(mockRepo)

			_, err := svc.UpdateTask(ctx, tt.id, tt.data)

			assertBusinessError(t, err, tt.code)
			mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("error - not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Update", mock.Anything, taskID, mock.Anything).Return(int64(0), nil)

		svc := service.NewTaskService(mockRepo)
		_, err := svc.UpdateTask(ctx, taskID.Hex(), task.Payload{"title": "x"})

		assertBusinessError(t, err, service.CodeNotFound)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

// TestTaskService_DeleteTask тестирует удаление
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	tests := []struct {
		name      string
		setupMock func(*MockTaskRepository)
		code      string
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, taskID).Return(int64(1), nil)
			},
		},
		{
			name: "error - not found",
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, taskID).Return(int64(0), nil)
			},
			code: service.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			err := service.NewTaskService(mockRepo).DeleteTask(ctx, taskID.Hex())

			if tt.code == "" {
				assert.NoError(t, err)
			} else {
				assertBusinessError(t, err, tt.code)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_BulkDelete тестирует пакетное удаление
func TestTaskService_BulkDelete(t *testing.T) {
	ctx := context.Background()
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()

	t.Run("counts only removed records", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, first).Return(int64(1), nil)
		mockRepo.On("Delete", mock.Anything, second).Return(int64(0), nil)

		count, err := service.NewTaskService(mockRepo).BulkDelete(ctx, []string{first.Hex(), second.Hex()})

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed id fails before any delete", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		count, err := service.NewTaskService(mockRepo).BulkDelete(ctx, []string{first.Hex(), "malformed"})

		assertBusinessError(t, err, service.CodeInvalidID)
		assert.Equal(t, int64(0), count)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("empty list", func(t *testing.T) {
		count, err := service.NewTaskService(new(MockTaskRepository)).BulkDelete(ctx, []string{})

		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

// TestTaskService_ArchiveTask тестирует архивацию задачи
func TestTaskService_ArchiveTask(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - uses service clock", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Archive", mock.Anything, taskID, fixed).Return(int64(1), nil)

		svc := service.NewTaskService(mockRepo, service.WithClock(func() time.Time { return fixed }))

		assert.NoError(t, svc.ArchiveTask(ctx, taskID.Hex()))
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Archive", mock.Anything, taskID, mock.Anything).Return(int64(0), nil)

		err := service.NewTaskService(mockRepo).ArchiveTask(ctx, taskID.Hex())

		assertBusinessError(t, err, service.CodeNotFound)
	})
}

// TestTaskService_Tags тестирует добавление и удаление тегов
func TestTaskService_Tags(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	t.Run("add tag persists only tags", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		existing := task.New("t", task.WithTags([]string{"backend"}))
		existing.ID = taskID
		afterUpdate := existing.Clone()
		afterUpdate.Tags = []string{"backend", "urgent"}

		mockRepo.On("FindByID", mock.Anything, taskID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, taskID, mock.MatchedBy(func(u task.Update) bool {
			return u.Tags != nil && assert.ObjectsAreEqual([]string{"backend", "urgent"}, *u.Tags) &&
				u.Title == nil && u.Status == nil && u.Description == nil
		})).Return(int64(1), nil)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(afterUpdate, nil).Once()

		result, err := service.NewTaskService(mockRepo).AddTag(ctx, taskID.Hex(), "Urgent")

		require.NoError(t, err)
		assert.Equal(t, []string{"backend", "urgent"}, result.Tags)
		assert.Equal(t, []string{"backend"}, existing.Tags)
		mockRepo.AssertExpectations(t)
	})

	tagErrors := []struct {
		name string
		tag  string
		code string
	}{
		{name: "empty tag", tag: "", code: service.CodeEmptyTag},
		{name: "whitespace", tag: "two words", code: service.CodeInvalidTag},
		{name: "too long", tag: string(make([]byte, 51)), code: service.CodeInvalidTag},
	}

	for _, tt := range tagErrors {
		t.Run("error - "+tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockRepo.On("FindByID", mock.Anything, taskID).Return(task.New("t"), nil)

			_, err := service.NewTaskService(mockRepo).AddTag(ctx, taskID.Hex(), tt.tag)

			assertBusinessError(t, err, tt.code)
			mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("error - store failure is internal", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(nil, errors.New("connection reset"))

		_, err := service.NewTaskService(mockRepo).RemoveTag(ctx, taskID.Hex(), "x")

		busErr := assertBusinessError(t, err, service.CodeInternal)
		assert.Equal(t, "Internal server error", busErr.Message)
	})

	t.Run("error - remove from missing task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		_, err := service.NewTaskService(mockRepo).RemoveTag(ctx, taskID.Hex(), "x")

		assertBusinessError(t, err, service.CodeNotFound)
	})
}

// TestTaskService_TagAggregates тестирует агрегаты по тегам на inmemory хранилище
func TestTaskService_TagAggregates(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewTaskStorage()
	svc := service.NewTaskService(repo)

	_, err := svc.CreateTask(ctx, task.Payload{"title": "one", "tags": []any{"a", "b"}})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, task.Payload{"title": "two", "tags": []any{"b", "c"}})
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tags)

	counts, err := svc.TagStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 1}, counts)

	t.Run("error - store failure is internal", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindAll", mock.Anything).Return(nil, errors.New("boom"))

		_, err := service.NewTaskService(mockRepo).TagStats(ctx)
		assertBusinessError(t, err, service.CodeInternal)
	})
}

// TestTaskService_TagLifecycle тестирует полный цикл на inmemory хранилище
func TestTaskService_TagLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage())

	created, err := svc.CreateTask(ctx, task.Payload{"title": "Write report"})
	require.NoError(t, err)
	id := created.ID.Hex()

	tagged, err := svc.AddTag(ctx, id, "Urgent")
	require.NoError(t, err)
	tagged, err = svc.AddTag(ctx, id, "urgent")
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, tagged.Tags)
	assert.False(t, tagged.UpdatedAt.Before(created.UpdatedAt))

	untagged, err := svc.RemoveTag(ctx, id, "urgent")
	require.NoError(t, err)
	assert.Empty(t, untagged.Tags)

	require.NoError(t, svc.ArchiveTask(ctx, id))
	archived, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, created.CreatedAt, archived.CreatedAt)

	stats := svc.Stats(ctx)
	assert.Equal(t, 1, stats.X)
	assert.Nil(t, stats.Total)
}

func TestTaskService_Stats(t *testing.T) {
	mockRepo := new(MockTaskRepository)

	stats := service.NewTaskService(mockRepo).Stats(context.Background())

	assert.Equal(t, 1, stats.X)
	assert.Nil(t, stats.Total)
	mockRepo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}
