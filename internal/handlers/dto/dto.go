package dto

import (
	"taskTrackerAPI/internal/models/task"
)

type BulkDeleteRequest struct {
	TaskIDs []string `json:"task_ids"`
}

type ListResponse struct {
	Tasks []*task.Serialized `json:"tasks"`
	Total int64              `json:"total"`
	Limit int64              `json:"limit"`
	Skip  int64              `json:"skip"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type BulkDeleteResponse struct {
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type TagCountsResponse struct {
	TagCounts map[string]int `json:"tag_counts"`
}

// StatsResponse - заглушка, total всегда null
type StatsResponse struct {
	X     int    `json:"x"`
	Total *int64 `json:"total"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func FromTaskList(tasks []*task.Task) []*task.Serialized {
	return task.SerializeList(tasks)
}

func FromTags(tags []string) TagsResponse {
	if tags == nil {
		tags = []string{}
	}
	return TagsResponse{Tags: tags}
}

func FromTagCounts(counts map[string]int) TagCountsResponse {
	if counts == nil {
		counts = map[string]int{}
	}
	return TagCountsResponse{TagCounts: counts}
}
