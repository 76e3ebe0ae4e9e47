package task_test

import (
	"encoding/json"
	"taskTrackerAPI/internal/models/task"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestNew тестирует значения по умолчанию
func TestNew(t *testing.T) {
	created := task.New("Write report")

	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "", created.Description)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, []string{}, created.Tags)
	assert.False(t, created.Archived)
	assert.True(t, created.ID.IsZero())
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	withOptions := task.New("x",
		task.WithDescription("desc"),
		task.WithStatus(task.StatusInProgress),
		task.WithTags([]string{"Urgent", "urgent", "api"}),
	)
	assert.Equal(t, "desc", withOptions.Description)
	assert.Equal(t, task.StatusInProgress, withOptions.Status)
	assert.Equal(t, []string{"urgent", "api"}, withOptions.Tags)

	emptyOptions := task.New("x", task.WithDescription(""), task.WithStatus(""), task.WithTags(nil))
	assert.Equal(t, task.StatusPending, emptyOptions.Status)
	assert.Equal(t, []string{}, emptyOptions.Tags)
}

// TestValidate тестирует валидацию сырых данных
func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     task.Payload
		expected []string
	}{
		{
			name:     "valid minimal",
			data:     task.Payload{"title": "Buy milk"},
			expected: []string{},
		},
		{
			name: "valid full",
			data: task.Payload{
				"title":       "Buy milk",
				"description": "2 liters",
				"status":      "in_progress",
				"tags":        []any{"shopping", "Home"},
			},
			expected: []string{},
		},
		{
			name:     "empty title",
			data:     task.Payload{"title": ""},
			expected: []string{"Title is required"},
		},
		{
			name:     "missing title",
			data:     task.Payload{"description": "x"},
			expected: []string{"Title is required"},
		},
		{
			name:     "null title",
			data:     task.Payload{"title": nil},
			expected: []string{"Title is required"},
		},
		{
			name:     "title not a string",
			data:     task.Payload{"title": 42.0},
			expected: []string{"Title must be a string"},
		},
		{
			name:     "invalid status",
			data:     task.Payload{"title": "Buy milk", "status": "done"},
			expected: []string{"Status must be one of: pending, in_progress, completed"},
		},
		{
			name:     "empty status passes",
			data:     task.Payload{"title": "Buy milk", "status": ""},
			expected: []string{},
		},
		{
			name:     "tags not a list",
			data:     task.Payload{"title": "Buy milk", "tags": "urgent"},
			expected: []string{"Tags must be a list"},
		},
		{
			name:     "null tags pass",
			data:     task.Payload{"title": "Buy milk", "tags": nil},
			expected: []string{},
		},
		{
			name: "every invalid tag reported",
			data: task.Payload{"title": "Buy milk", "tags": []any{"ok", "bad tag", "", 5.0}},
			expected: []string{
				"Invalid tag: Tag contains invalid characters",
				"Invalid tag: Tag cannot be empty",
				"Invalid tag: Tag must be a string",
			},
		},
		{
			name:     "description not a string",
			data:     task.Payload{"title": "x", "description": true},
			expected: []string{"Description must be a string"},
		},
		{
			name: "multiple errors",
			data: task.Payload{"status": "done", "tags": 1.0},
			expected: []string{
				"Title is required",
				"Status must be one of: pending, in_progress, completed",
				"Tags must be a list",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, task.Validate(tt.data))
		})
	}
}

// TestUpdateFields тестирует белый список полей обновления
func TestUpdateFields(t *testing.T) {
	t.Run("drops immutable fields", func(t *testing.T) {
		before := time.Now().UTC()
		upd := task.UpdateFields(task.Payload{
			"title":      "x",
			"id":         "should-be-dropped",
			"_id":        "should-be-dropped",
			"created_at": "should-be-dropped",
			"archived":   true,
		})

		fields := upd.Fields()
		assert.Len(t, fields, 2)
		assert.Equal(t, "x", fields["title"])
		assert.False(t, upd.UpdatedAt.Before(before))
		assert.Equal(t, upd.UpdatedAt, fields["updated_at"])
	})

	t.Run("drops nulls and wrong types", func(t *testing.T) {
		upd := task.UpdateFields(task.Payload{
			"title":       nil,
			"description": 12.0,
			"status":      "",
			"tags":        "nope",
		})
		assert.Nil(t, upd.Title)
		assert.Nil(t, upd.Description)
		assert.Nil(t, upd.Status)
		assert.Nil(t, upd.Tags)
		assert.Len(t, upd.Fields(), 1)
	})

	t.Run("all fields", func(t *testing.T) {
		upd := task.UpdateFields(task.Payload{
			"title":       "t",
			"description": "",
			"status":      "completed",
			"tags":        []any{"B", "a", "b"},
		})
		require.NotNil(t, upd.Title)
		require.NotNil(t, upd.Description)
		require.NotNil(t, upd.Status)
		require.NotNil(t, upd.Tags)
		assert.Equal(t, "", *upd.Description)
		assert.Equal(t, task.StatusCompleted, *upd.Status)
		assert.Equal(t, []string{"b", "a"}, *upd.Tags)
	})

	t.Run("apply returns copy", func(t *testing.T) {
		original := task.New("old", task.WithTags([]string{"x"}))
		upd := task.UpdateFields(task.Payload{"title": "new", "tags": []any{}})

		res := upd.Apply(original)
		assert.Equal(t, "new", res.Title)
		assert.Equal(t, []string{}, res.Tags)
		assert.Equal(t, upd.UpdatedAt, res.UpdatedAt)
		assert.Equal(t, original.CreatedAt, res.CreatedAt)
		assert.Equal(t, "old", original.Title)
		assert.Equal(t, []string{"x"}, original.Tags)
	})
}

// TestSerialize тестирует преобразование для транспорта
func TestSerialize(t *testing.T) {
	assert.Nil(t, task.Serialize(nil))

	id := primitive.NewObjectID()
	created := time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC)
	src := &task.Task{
		ID:        id,
		Title:     "Write report",
		Status:    task.StatusPending,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}

	res := task.Serialize(src)
	require.NotNil(t, res)
	assert.Equal(t, id.Hex(), res.ID)
	assert.Equal(t, "2024-05-01T10:30:00.123Z", res.CreatedAt)
	assert.Equal(t, "2024-05-01T10:31:00.123Z", res.UpdatedAt)
	assert.Equal(t, []string{}, res.Tags)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"tags":[]`)
	assert.Contains(t, string(body), `"_id":"`+id.Hex()+`"`)
	assert.NotContains(t, string(body), "archived")

	src.Archived = true
	body, err = json.Marshal(task.Serialize(src))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"archived":true`)
}

// TestSerialize_StoredRoundTrip проверяет, что ответ на создание совпадает с прочитанной из BSON записью
func TestSerialize_StoredRoundTrip(t *testing.T) {
	created := task.New("Write report", task.WithTags([]string{"urgent"}))
	created.ID = task.NewID()

	raw, err := bson.Marshal(created)
	require.NoError(t, err)

	var stored task.Task
	require.NoError(t, bson.Unmarshal(raw, &stored))

	assert.Equal(t, task.Serialize(created), task.Serialize(&stored))

	upd := task.UpdateFields(task.Payload{"title": "new"})
	assert.Equal(t, upd.UpdatedAt, upd.UpdatedAt.Truncate(time.Millisecond))
}

func TestNow(t *testing.T) {
	now := task.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
}

// TestSerialize_ZeroTime: нулевое время отдается строковой формой
func TestSerialize_ZeroTime(t *testing.T) {
	res := task.Serialize(&task.Task{Title: "x"})
	require.NotNil(t, res)
	assert.Equal(t, time.Time{}.String(), res.CreatedAt)
	assert.Equal(t, "0001-01-01 00:00:00 +0000 UTC", res.UpdatedAt)
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()

	parsed, err := task.ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "malformed", "123", id.Hex() + "0"} {
		_, err := task.ParseID(bad)
		assert.ErrorIs(t, err, task.ErrInvalidID, bad)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, task.StatusPending.Valid())
	assert.True(t, task.StatusInProgress.Valid())
	assert.True(t, task.StatusCompleted.Valid())
	assert.False(t, task.Status("done").Valid())
	assert.False(t, task.Status("").Valid())
}
