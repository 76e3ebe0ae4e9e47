package handlers

import (
	"context"
	"taskTrackerAPI/internal/models/task"
	"taskTrackerAPI/internal/service"
)

type Service interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, task.Payload) (*task.Task, error)
	ListTasks(context.Context, service.ListQuery) (service.ListResult, error)
	GetTask(context.Context, string) (*task.Task, error)
	UpdateTask(context.Context, string, task.Payload) (*task.Task, error)
	DeleteTask(context.Context, string) error
	BulkDelete(context.Context, []string) (int64, error)
	ArchiveTask(context.Context, string) error
	AddTag(context.Context, string, string) (*task.Task, error)
	RemoveTag(context.Context, string, string) (*task.Task, error)
	ListTags(context.Context) ([]string, error)
	TagStats(context.Context) (map[string]int, error)
	Stats(context.Context) service.Stats
}

var _ Service = (*service.TaskService)(nil)
