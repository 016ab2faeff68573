package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
)

// Schema notes: email uniqueness is case-insensitive (expression index) and
// project names are unique per owner, so two users can both have a "P1".
// The tasks->projects FK means a task insert racing a project cascade fails
// instead of leaving an orphan.
const schema = `
CREATE TABLE IF NOT EXISTS users(
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS projects(
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS projects_owner_name_idx ON projects (user_id, name);

CREATE TABLE IF NOT EXISTS tasks(
	id BIGSERIAL PRIMARY KEY,
	project_id BIGINT NOT NULL REFERENCES projects(id),
	user_id BIGINT NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'todo',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_owner_idx ON tasks (user_id);
CREATE INDEX IF NOT EXISTS tasks_project_idx ON tasks (project_id);
`

// Open connects, pings, and creates the schema. Failure here is fatal to
// startup, nowhere else.
func Open(dburl string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dburl)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	//check if connection is alive
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not reach database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	return db, nil
}

// withTimeout bounds every persistence call. No query is allowed to hang
// the request.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// storageErr translates driver failures into the shared taxonomy. A
// deadline hit becomes StorageTimeout rather than bubbling a raw context
// error to the caller.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.ErrStorageTimeout
	case errors.Is(err, sql.ErrConnDone), errors.Is(err, sql.ErrTxDone):
		return apperr.ErrStorageUnavailable
	default:
		return apperr.Wrap(apperr.ErrInternal, "storage: %v", err)
	}
}

// isUniqueViolation matches the unique-index backstop on both engines:
// pgx reports SQLSTATE 23505, sqlite reports "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}

// isForeignKeyViolation matches a referential failure the same way: pgx
// reports SQLSTATE 23503, sqlite "FOREIGN KEY constraint failed".
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY")
}
