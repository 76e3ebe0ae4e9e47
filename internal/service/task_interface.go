package service

import (
	"context"
	"taskTrackerAPI/internal/models/task"
	"taskTrackerAPI/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskRepository - хранилище документов задач.
// Update, Archive и Delete возвращают число затронутых записей, 0 означает "не найдено".
type TaskRepository interface {
	HealthCheck(context.Context) error
	Insert(context.Context, *task.Task) error
	FindByID(context.Context, primitive.ObjectID) (*task.Task, error)
	Find(context.Context, repository.Filter, repository.Page) ([]*task.Task, error)
	Count(context.Context, repository.Filter) (int64, error)
	FindAll(context.Context) ([]*task.Task, error)
	Update(context.Context, primitive.ObjectID, task.Update) (int64, error)
	Archive(context.Context, primitive.ObjectID, time.Time) (int64, error)
	Delete(context.Context, primitive.ObjectID) (int64, error)
	Close()
}
