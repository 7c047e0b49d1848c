package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pockettasks/internal/models"
	"pockettasks/internal/taskstore"
)

// createTaskRequest is the body of POST /api/tasks.
type createTaskRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
	DueDate  string `json:"dueDate"`
	Category string `json:"category"`
}

// updateTaskRequest is the body of PATCH /api/tasks/{id}. Only fields that are
// present are changed; an empty dueDate clears the due date.
type updateTaskRequest struct {
	Text     *string `json:"text"`
	Priority *string `json:"priority"`
	DueDate  *string `json:"dueDate"`
	Category *string `json:"category"`
}

// ListTasks returns the tasks matching the filter, q and sort query parameters.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filter, err := models.ParseFilter(values.Get("filter"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sortKey, err := models.ParseSortKey(values.Get("sort"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks := h.store.Query(models.Query{
		Filter: filter,
		Search: values.Get("q"),
		Sort:   sortKey,
	})

	h.respondJSON(w, http.StatusOK, tasks)
}

// GetTask returns a single task.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		h.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	h.respondJSON(w, http.StatusOK, task)
}

// CreateTask creates a new task.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = h.defaultCategory
	}

	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dueDate, err := models.ParseDueDate(req.DueDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task := models.Task{
		Text:     strings.TrimSpace(req.Text),
		Priority: priority,
		DueDate:  dueDate,
		Category: category,
	}
	if err := task.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.AddTask(task.Text, task.Priority, task.DueDate, task.Category)
	if err != nil {
		if errors.Is(err, taskstore.ErrEmptyText) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondJSON(w, http.StatusCreated, created)
}

// UpdateTask applies the fields present in the request body to a task.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Get(id); !ok {
		h.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Validate everything before mutating so a bad field changes nothing.
	var (
		text     string
		priority models.Priority
		dueDate  string
		err      error
	)
	if req.Text != nil {
		text = strings.TrimSpace(*req.Text)
		if text == "" {
			h.respondError(w, http.StatusBadRequest, "text is required")
			return
		}
	}
	if req.Priority != nil {
		if priority, err = models.ParsePriority(*req.Priority); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.DueDate != nil {
		if dueDate, err = models.ParseDueDate(*req.DueDate); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	found := true
	if req.Text != nil {
		found = h.store.UpdateTask(id, text) && found
	}
	if req.Category != nil {
		found = h.store.UpdateTaskCategory(id, strings.TrimSpace(*req.Category)) && found
	}
	if req.Priority != nil {
		found = h.store.UpdateTaskPriority(id, priority) && found
	}
	if req.DueDate != nil {
		found = h.store.UpdateTaskDueDate(id, dueDate) && found
	}

	task, ok := h.store.Get(id)
	if !found || !ok {
		h.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	h.respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task. Deleting a missing task is not an error.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteTask(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask toggles the completion status of a task.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.store.ToggleTaskComplete(chi.URLParam(r, "id"))
	if !ok {
		h.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	h.respondJSON(w, http.StatusOK, task)
}

// ClearCompleted removes all completed tasks.
func (h *Handlers) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed := h.store.ClearCompleted()
	h.respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
