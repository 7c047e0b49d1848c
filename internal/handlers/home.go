package handlers

import (
	"net/http"
	"strconv"
	"time"

	"pockettasks/internal/models"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

// StatusResponse reports whether the store has finished loading.
type StatusResponse struct {
	Ready bool `json:"ready"`
	Tasks int  `json:"tasks"`
}

// Status reports readiness and the number of tasks.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, StatusResponse{
		Ready: h.store.Ready(),
		Tasks: len(h.store.Tasks()),
	})
}

// Stats returns task counts.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.store.Summary())
}

// Categories returns the suggested categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.categories)
}

// UpcomingTasks returns pending tasks due within the next 7, 14 or 30 days
// (default 7), ordered by due date.
func (h *Handlers) UpcomingTasks(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid days")
			return
		}
		if d != 7 && d != 14 && d != 30 {
			h.respondError(w, http.StatusBadRequest, "days must be 7, 14, or 30")
			return
		}
		days = d
	}

	tasks := h.store.Query(models.Query{Filter: models.FilterPending, Sort: models.SortDueDate})
	h.respondJSON(w, http.StatusOK, models.DueWithin(tasks, nowFunc(), days))
}
