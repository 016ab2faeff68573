package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/auth"
	"github.com/equezada327/pro-tasker-backend/internal/models"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

// we are doing this to avoid collision with libraries
type contextKey string

const (
	userKey    contextKey = "authUser"
	projectKey contextKey = "authProject"
	taskKey    contextKey = "authTask"
)

// Middleware bundles the per-request state machine:
// Unauthenticated -> Authenticated -> Authorized | Denied.
type Middleware struct {
	tokens   *auth.TokenService
	users    *repository.UserRepo
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
}

func NewMiddleware(tokens *auth.TokenService, users *repository.UserRepo, projects *repository.ProjectRepo, tasks *repository.TaskRepo) *Middleware {
	return &Middleware{tokens: tokens, users: users, projects: projects, tasks: tasks}
}

// tokenFromRequest accepts a bearer header or the session cookie set by the
// OAuth callback.
func tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, found := strings.CutPrefix(h, "Bearer ")
		if !found || raw == "" {
			return "", apperr.ErrTokenInvalid
		}
		return raw, nil
	}
	if cookie, err := r.Cookie("session_token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", apperr.ErrTokenMissing
}

// Authenticate verifies the session token and then re-fetches the account:
// a token for a deleted user is refused, claims alone are not trusted.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := tokenFromRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates the user listing. This is the only admin override in
// the API - project and task routes have no such path.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := CallerFromContext(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !user.IsAdmin() {
			writeError(w, r, apperr.ErrAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProjectCtx resolves {projectID} scoped by the caller and attaches the
// project. A foreign project answers the same NotFound as a missing one.
func (m *Middleware) ProjectCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := CallerFromContext(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, err := idParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		project, err := m.projects.GetByID(r.Context(), id, user.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), projectKey, project)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TaskCtx resolves {taskID} transitively through its parent project: the
// caller must own the project, not merely appear on the task row.
func (m *Middleware) TaskCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := CallerFromContext(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, err := idParam(r, "taskID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		task, err := m.tasks.GetByID(r.Context(), id, user.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), taskKey, task)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFromContext returns the authenticated user attached by Authenticate.
func CallerFromContext(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrInternal, "caller missing from request context")
	}
	return user, nil
}

func projectFromContext(ctx context.Context) (*models.Project, error) {
	project, ok := ctx.Value(projectKey).(*models.Project)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrInternal, "project missing from request context")
	}
	return project, nil
}

func taskFromContext(ctx context.Context) (*models.Task, error) {
	task, ok := ctx.Value(taskKey).(*models.Task)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrInternal, "task missing from request context")
	}
	return task, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(map[string]string{name: "must be a positive integer id"})
	}
	return id, nil
}
