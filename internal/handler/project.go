package handler

import (
	"net/http"

	"github.com/equezada327/pro-tasker-backend/internal/models"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

type ProjectHandler struct {
	projects *repository.ProjectRepo
}

func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.projects.Create(r.Context(), caller.ID, req.Name, req.Description, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	sort := repository.ProjectSort{Field: q.Get("sort"), Direction: q.Get("dir")}

	projects, err := h.projects.ListByOwner(r.Context(), caller.ID, q.Get("status"), sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var patch models.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.projects.Update(r.Context(), project.ID, caller.ID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type deleteProjectResponse struct {
	Project      *models.Project `json:"project"`
	DeletedTasks int64           `json:"deleted_tasks"`
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	deleted, taskCount, err := h.projects.Delete(r.Context(), project.ID, caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteProjectResponse{Project: deleted, DeletedTasks: taskCount})
}
