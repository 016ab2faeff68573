package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/equezada327/pro-tasker-backend/internal/auth"
	"github.com/equezada327/pro-tasker-backend/internal/config"
	"github.com/equezada327/pro-tasker-backend/internal/handler"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

func setupSlog() {
	//Json handler that writes to standard out
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug, //log debug and above
		AddSource: true,            //adds file name and line number
	})

	//Intialise new logger and set it as default for the server
	logger := slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	//structure logging
	setupSlog()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database_initialization_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database_initialization_success")

	//optional google login
	if cfg.GoogleOAuthEnabled() {
		auth.SetupGothic(cfg)
		slog.Info("google_oauth_enabled")
	}

	mux := handler.NewRouter(cfg, db)

	slog.Info("server_start", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		slog.Error("server_start_failed", "error", err)
		os.Exit(1)
	}
}
