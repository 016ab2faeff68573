package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/models"
)

// ProjectSort is caller-supplied ordering. Field and direction are matched
// against a whitelist; anything else falls back to the default.
type ProjectSort struct {
	Field     string
	Direction string
}

var projectSortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
	"status":     "status",
}

func (s ProjectSort) orderBy() string {
	col, ok := projectSortFields[s.Field]
	if !ok {
		return "created_at DESC"
	}
	dir := "DESC"
	if s.Direction == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}

type ProjectRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewProjectRepo(db *sql.DB, timeout time.Duration) *ProjectRepo {
	return &ProjectRepo{db: db, timeout: timeout}
}

const projectCols = "id, user_id, name, description, status, created_at, updated_at"

// Create persists a new project for ownerID. The owner is fixed here and
// never changes for the life of the record.
func (r *ProjectRepo) Create(ctx context.Context, ownerID int64, name, description, status string) (*models.Project, error) {
	name, description = models.TrimProjectInput(name, description)
	if status == "" {
		status = models.ProjectActive
	}
	if err := models.ValidateProjectFields(name, description, status); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	p := &models.Project{
		UserID:      ownerID,
		Name:        name,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO projects (user_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, storageErr(err)
	}
	return p, nil
}

// ListByOwner returns the caller's projects only.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID int64, status string, sort ProjectSort) ([]models.Project, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT " + projectCols + " FROM projects WHERE user_id = $1"
	args := []any{ownerID}
	if status != "" {
		if !models.ValidProjectStatus(status) {
			return nil, apperr.Validation(map[string]string{"status": "unknown project status"})
		}
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY " + sort.orderBy()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows.Scan, &p); err != nil {
			return nil, storageErr(err)
		}
		projects = append(projects, p)
	}
	return projects, storageErr(rows.Err())
}

// GetByID answers NotFound both for a missing project and for someone
// else's project - existence must not leak across owners.
func (r *ProjectRepo) GetByID(ctx context.Context, id, ownerID int64) (*models.Project, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT " + projectCols + " FROM projects WHERE id = $1 AND user_id = $2"
	var p models.Project
	err := scanProject(r.db.QueryRowContext(ctx, query, id, ownerID).Scan, &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &p, nil
}

// Update applies a partial patch. The UPDATE itself is scoped by id AND
// owner so a concurrent owner change cannot slip a foreign write through.
func (r *ProjectRepo) Update(ctx context.Context, id, ownerID int64, patch models.ProjectPatch) (*models.Project, error) {
	current, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	name, description, status := current.Name, current.Description, current.Status
	if patch.Name != nil {
		name = *patch.Name
	}
	if patch.Description != nil {
		description = *patch.Description
	}
	if patch.Status != nil {
		status = *patch.Status
	}
	name, description = models.TrimProjectInput(name, description)
	if err := models.ValidateProjectFields(name, description, status); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	query := `UPDATE projects SET name = $1, description = $2, status = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`
	res, err := r.db.ExecContext(ctx, query, name, description, status, now, id, ownerID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, storageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.ErrNotFound
	}

	current.Name, current.Description, current.Status, current.UpdatedAt = name, description, status, now
	return current, nil
}

// Delete removes a project and every task under it in one transaction.
// Either both are gone or neither is - no read after commit can observe a
// task pointing at a deleted project.
func (r *ProjectRepo) Delete(ctx context.Context, id, ownerID int64) (*models.Project, int64, error) {
	project, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	taskCount, err := res.RowsAffected()
	if err != nil {
		return nil, 0, storageErr(err)
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM projects WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		//deleted concurrently between the read and the transaction
		return nil, 0, apperr.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, storageErr(err)
	}
	return project, taskCount, nil
}

func scanProject(scan func(dest ...any) error, p *models.Project) error {
	return scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}
