package task

import (
	"errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty" db:"id"`
	Title       string             `json:"title" bson:"title" db:"title"`
	Description string             `json:"description" bson:"description" db:"description"`
	Status      Status             `json:"status" bson:"status" db:"status"`
	Tags        []string           `json:"tags" bson:"tags" db:"tags"`
	Archived    bool               `json:"archived,omitempty" bson:"archived,omitempty" db:"archived"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

type Status string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

var ErrInvalidID = errors.New("invalid task id")

// ParseID переводит строку из пути запроса в идентификатор хранилища
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// Now - текущее время в UTC с точностью до миллисекунд, как хранит BSON
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// New собирает новую задачу. Валидация вызывается отдельно через Validate.
func New(title string, opts ...TaskOption) *Task {
	now := Now()
	t := &Task{
		Title:     title,
		Status:    StatusPending,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Clone возвращает глубокую копию, срез тегов не разделяется с оригиналом
func (t *Task) Clone() *Task {
	if t == nil {
		return &Task{Tags: []string{}}
	}
	res := *t
	res.Tags = make([]string, len(t.Tags))
	copy(res.Tags, t.Tags)
	return &res
}
