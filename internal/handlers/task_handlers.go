package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"taskTrackerAPI/internal/handlers/dto"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"
	"taskTrackerAPI/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "task-tracker-api"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check не пройден", err)
		writeJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "unhealthy", Service: serviceName})
		return
	}
	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "healthy", Service: serviceName})
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !requireJSON(w, r) {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), payload)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, task.Serialize(created))
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	result, err := h.TaskService.ListTasks(r.Context(), service.ListQuery{
		Status: query.Get("status"),
		Tag:    query.Get("tag"),
		Limit:  queryInt64(r, "limit"),
		Skip:   queryInt64(r, "skip"),
	})
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(result.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Tasks: dto.FromTaskList(result.Tasks),
		Total: result.Total,
		Limit: result.Limit,
		Skip:  result.Skip,
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	found, err := h.TaskService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}
	writeJSON(w, http.StatusOK, task.Serialize(found))
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !requireJSON(w, r) {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", updated.ID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, task.Serialize(updated))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}

func (h *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !requireJSON(w, r) {
		return
	}
	var request dto.BulkDeleteRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if request.TaskIDs == nil {
		handleBusinessError(w, r, service.NewMissingField("task_ids", "No task IDs provided"))
		return
	}

	count, err := h.TaskService.BulkDelete(r.Context(), request.TaskIDs)
	if err != nil {
		handleServiceError(w, r, err, "bulk_delete")
		return
	}

	logger.Info("HTTP_OUT: Пакетное удаление",
		zap.Int64("deleted", count),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.BulkDeleteResponse{
		DeletedCount: count,
		Message:      fmt.Sprintf("%d tasks deleted successfully", count),
	})
}

func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.ArchiveTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, "archive_task")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task archived successfully"})
}

func (h *TaskHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	if !payload.Has("tag") {
		handleBusinessError(w, r, service.NewMissingField("tag", "Tag parameter is required"))
		return
	}

	var tag string
	if raw := payload["tag"]; raw != nil {
		s, isStr := raw.(string)
		if !isStr {
			handleBusinessError(w, r, service.NewInvalidTag("Tag must be a string"))
			return
		}
		tag = s
	}

	updated, err := h.TaskService.AddTag(r.Context(), chi.URLParam(r, "id"), tag)
	if err != nil {
		handleServiceError(w, r, err, "add_tag")
		return
	}
	writeJSON(w, http.StatusOK, task.Serialize(updated))
}

func (h *TaskHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	// chi берет параметр из RawPath, если он есть, иначе из уже декодированного Path
	tag := chi.URLParam(r, "tag")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(tag); err == nil {
			tag = unescaped
		}
	}

	updated, err := h.TaskService.RemoveTag(r.Context(), chi.URLParam(r, "id"), tag)
	if err != nil {
		handleServiceError(w, r, err, "remove_tag")
		return
	}
	writeJSON(w, http.StatusOK, task.Serialize(updated))
}

func (h *TaskHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.TaskService.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_tags")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromTags(tags))
}

func (h *TaskHandler) TagStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.TaskService.TagStats(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "tag_stats")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromTagCounts(counts))
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.TaskService.Stats(r.Context())
	writeJSON(w, http.StatusOK, dto.StatsResponse{X: stats.X, Total: stats.Total})
}
