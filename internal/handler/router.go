package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/equezada327/pro-tasker-backend/internal/auth"
	"github.com/equezada327/pro-tasker-backend/internal/config"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

// NewRouter wires repositories, middleware and routes into one handler.
// Every project/task route sits behind Authenticate plus the matching
// ownership resolver - none bypasses the chain.
func NewRouter(cfg *config.Config, db *sql.DB) http.Handler {
	users := repository.NewUserRepo(db, cfg.DBTimeout)
	projects := repository.NewProjectRepo(db, cfg.DBTimeout)
	tasks := repository.NewTaskRepo(db, cfg.DBTimeout)

	tokens := auth.NewTokenService(cfg.JWTSecret)
	mw := NewMiddleware(tokens, users, projects, tasks)

	authHandler := NewAuthHandler(users, tokens)
	oauthHandler := NewOAuthHandler(users, tokens)
	userHandler := NewUserHandler(users)
	projectHandler := NewProjectHandler(projects)
	taskHandler := NewTaskHandler(tasks)

	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Post("/api/users/register", authHandler.Register)
	r.Post("/api/users/login", authHandler.Login)

	if cfg.GoogleOAuthEnabled() {
		r.Get("/auth/google", oauthHandler.Begin)
		r.Get("/auth/google/callback", oauthHandler.Callback)
		r.Get("/logout", oauthHandler.Logout)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)

		r.Get("/api/users/me", userHandler.Me)
		r.With(mw.RequireAdmin).Get("/api/users", userHandler.List)

		r.Get("/api/projects", projectHandler.List)
		r.Post("/api/projects", projectHandler.Create)

		r.Route("/api/projects/{projectID}", func(r chi.Router) {
			r.Use(mw.ProjectCtx)
			r.Get("/", projectHandler.Get)
			r.Put("/", projectHandler.Update)
			r.Delete("/", projectHandler.Delete)
			r.Get("/tasks", taskHandler.ListForProject)
			r.Post("/tasks", taskHandler.Create)
		})

		r.Get("/api/tasks", taskHandler.List)
		r.Get("/api/tasks/stats", taskHandler.Stats)

		r.Route("/api/tasks/{taskID}", func(r chi.Router) {
			r.Use(mw.TaskCtx)
			r.Get("/", taskHandler.Get)
			r.Put("/", taskHandler.Update)
			r.Delete("/", taskHandler.Delete)
			r.Patch("/status", taskHandler.UpdateStatus)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		next.ServeHTTP(w, r)
		//logging completion of a request
		slog.Info("http_request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"ip", r.RemoteAddr,
			//imp : how long does it take a req to complete
			"duration", time.Since(start).String(),
		)
	})
}
