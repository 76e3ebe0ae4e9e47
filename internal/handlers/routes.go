package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes вешает маршруты /tasks на роутер.
// Статические пути chi сопоставляет раньше /{id}.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)   // GET /tasks
		r.Post("/", h.CreateTask) // POST /tasks

		r.Post("/bulk-delete", h.BulkDelete) // POST /tasks/bulk-delete
		r.Get("/stats", h.Stats)             // GET /tasks/stats
		r.Get("/tags", h.ListTags)           // GET /tasks/tags
		r.Get("/tags/stats", h.TagStats)     // GET /tasks/tags/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)       // GET /tasks/{id}
			r.Put("/", h.UpdateTask)    // PUT /tasks/{id}
			r.Delete("/", h.DeleteTask) // DELETE /tasks/{id}

			r.Post("/archive", h.ArchiveTask)    // POST /tasks/{id}/archive
			r.Post("/tags", h.AddTag)            // POST /tasks/{id}/tags
			r.Delete("/tags/{tag}", h.RemoveTag) // DELETE /tasks/{id}/tags/{tag}
		})
	})
}

// NewRouter собирает роутер: /health в корне, задачи в корне и под /api
func (h *TaskHandler) NewRouter(middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health", h.HealthCheck)
	h.RegisterRoutes(r)
	r.Route("/api", h.RegisterRoutes)
	return r
}
