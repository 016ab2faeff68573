package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/models"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

type TaskHandler struct {
	tasks *repository.TaskRepo
}

func NewTaskHandler(tasks *repository.TaskRepo) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Create handles POST /api/projects/{projectID}/tasks. The parent project
// in context was already resolved as caller-owned.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), project, req.Title, req.Description, req.Status, req.Priority, req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ListForProject handles GET /api/projects/{projectID}/tasks.
func (h *TaskHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := repository.TaskFilter{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		ProjectID: project.ID,
	}
	sort := repository.TaskSort{Field: q.Get("sort"), Direction: q.Get("dir")}

	tasks, err := h.tasks.ListForOwner(r.Context(), caller.ID, filter, sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// List handles GET /api/tasks with optional status/priority/project_id
// filters across all of the caller's projects.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := repository.TaskFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
	if raw := q.Get("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, apperr.Validation(map[string]string{"project_id": "must be a positive integer id"}))
			return
		}
		filter.ProjectID = id
	}
	sort := repository.TaskSort{Field: q.Get("sort"), Direction: q.Get("dir")}

	tasks, err := h.tasks.ListForOwner(r.Context(), caller.ID, filter, sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := taskFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := taskFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.tasks.Update(r.Context(), task.ID, caller.ID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/tasks/{taskID}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := taskFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.tasks.UpdateStatus(r.Context(), task.ID, caller.ID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := taskFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.tasks.Delete(r.Context(), task.ID, caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.tasks.StatsForOwner(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
