package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pockettasks/internal/models"
)

// TaskStore is the subset of taskstore.Store the handlers drive.
type TaskStore interface {
	Ready() bool
	Tasks() []models.Task
	Get(id string) (models.Task, bool)
	Query(q models.Query) []models.Task
	Summary() models.Summary

	AddTask(text string, priority models.Priority, dueDate, category string) (models.Task, error)
	DeleteTask(id string) bool
	ToggleTaskComplete(id string) (models.Task, bool)
	UpdateTask(id, text string) bool
	UpdateTaskCategory(id, category string) bool
	UpdateTaskPriority(id string, priority models.Priority) bool
	UpdateTaskDueDate(id, dueDate string) bool
	ClearCompleted() int
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store           TaskStore
	categories      []string
	defaultCategory string
	log             zerolog.Logger
}

// New creates a new Handlers instance.
func New(s TaskStore, categories []string, defaultCategory string, log zerolog.Logger) *Handlers {
	if defaultCategory == "" {
		defaultCategory = models.DefaultCategory
	}
	return &Handlers{
		store:           s,
		categories:      categories,
		defaultCategory: defaultCategory,
		log:             log,
	}
}

// Routes builds the router for the JSON API.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/status", h.Status)
	r.Get("/api/stats", h.Stats)
	r.Get("/api/categories", h.Categories)

	r.Get("/api/tasks", h.ListTasks)
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks/upcoming", h.UpcomingTasks)
	r.Post("/api/tasks/clear-completed", h.ClearCompleted)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Patch("/api/tasks/{id}", h.UpdateTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	r.Post("/api/tasks/{id}/toggle", h.ToggleTask)

	return r
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response with the given status code.
func (h *Handlers) respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("failed to write response")
	}
}

// respondError sends an error response.
func (h *Handlers) respondError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, errorResponse{Error: message})
}

// requestLogger logs one line per request with zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := nowFunc()

			next.ServeHTTP(ww, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", nowFunc().Sub(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
