package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/models"
)

// listCap bounds every task listing. Pagination beyond this cap is a
// documented non-goal.
const listCap = 100

// TaskFilter narrows a listing. ProjectID, when set, must name a project
// the caller owns.
type TaskFilter struct {
	Status    string
	Priority  string
	ProjectID int64
}

// TaskSort mirrors ProjectSort for task listings.
type TaskSort struct {
	Field     string
	Direction string
}

var taskSortFields = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"due_date":   "t.due_date",
	"title":      "t.title",
	"priority":   "t.priority",
	"status":     "t.status",
}

func (s TaskSort) orderBy() string {
	col, ok := taskSortFields[s.Field]
	if !ok {
		return "t.created_at DESC"
	}
	dir := "DESC"
	if s.Direction == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}

// TaskStats are the aggregate counts for one owner's tasks across all of
// their projects.
type TaskStats struct {
	Total          int64 `json:"total"`
	Todo           int64 `json:"todo"`
	InProgress     int64 `json:"in_progress"`
	Done           int64 `json:"done"`
	HighPriority   int64 `json:"high_priority"`
	UrgentPriority int64 `json:"urgent_priority"`
	Overdue        int64 `json:"overdue"`
	CompletionRate int64 `json:"completion_rate"`
}

type TaskRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTaskRepo(db *sql.DB, timeout time.Duration) *TaskRepo {
	return &TaskRepo{db: db, timeout: timeout}
}

const taskJoinCols = `t.id, t.project_id, t.user_id, t.title, t.description,
	t.status, t.priority, t.due_date, t.created_at, t.updated_at, p.name, p.user_id`

// Create persists a task under a project the caller already resolved and
// owns. The owner is denormalized from the project, never taken from input.
func (r *TaskRepo) Create(ctx context.Context, project *models.Project, title, description, status, priority string, dueDate *time.Time) (*models.Task, error) {
	title, description = models.TrimTaskInput(title, description)
	if status == "" {
		status = models.TaskTodo
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	if err := models.ValidateTaskFields(title, description, status, priority, dueDate, time.Now()); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	t := &models.Task{
		ProjectID:   project.ID,
		UserID:      project.UserID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		ProjectName: project.Name,
	}

	query := `INSERT INTO tasks (project_id, user_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		t.ProjectID, t.UserID, t.Title, t.Description, t.Status, t.Priority, nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		// Losing the race against a project cascade hits the FK; the
		// accurate answer is that the parent project is gone.
		if isForeignKeyViolation(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return t, nil
}

// GetByID resolves a task together with its parent project, scoped by the
// project owner. Missing task and foreign task are the same NotFound. A
// denormalized owner that disagrees with the project owner is corruption
// and is never trusted.
func (r *TaskRepo) GetByID(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + taskJoinCols + ` FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = $1 AND p.user_id = $2`

	t, projectOwner, err := scanTaskRow(r.db.QueryRowContext(ctx, query, id, ownerID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, storageErr(err)
	}
	if t.UserID != projectOwner {
		return nil, apperr.Wrap(apperr.ErrInternal,
			"task %d owner %d disagrees with project owner %d", t.ID, t.UserID, projectOwner)
	}
	return t, nil
}

// Update applies a partial patch; each changed field is re-validated and
// unchanged fields keep their prior values. The final UPDATE is scoped by
// id AND owner.
func (r *TaskRepo) Update(ctx context.Context, id, ownerID int64, patch models.TaskPatch) (*models.Task, error) {
	current, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	title, description := current.Title, current.Description
	status, priority := current.Status, current.Priority
	dueDate := current.DueDate
	dueDateChanged := false

	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Description != nil {
		description = *patch.Description
	}
	if patch.Status != nil {
		status = *patch.Status
	}
	if patch.Priority != nil {
		priority = *patch.Priority
	}
	if patch.ClearDueDate {
		dueDate = nil
		dueDateChanged = true
	} else if patch.DueDate != nil {
		dueDate = patch.DueDate
		dueDateChanged = true
	}

	title, description = models.TrimTaskInput(title, description)
	// The past-due-date rule only applies to a due date being set now; a
	// task whose existing due date has since passed stays updatable.
	checkDate := dueDate
	if !dueDateChanged {
		checkDate = nil
	}
	if err := models.ValidateTaskFields(title, description, status, priority, checkDate, time.Now()); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	query := `UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`
	res, err := r.db.ExecContext(ctx, query, title, description, status, priority, nullTime(dueDate), now, id, ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.ErrNotFound
	}

	current.Title, current.Description = title, description
	current.Status, current.Priority = status, priority
	current.DueDate, current.UpdatedAt = dueDate, now
	return current, nil
}

// UpdateStatus is the status-only patch behind PATCH /tasks/{id}/status.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id, ownerID int64, status string) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, apperr.Validation(map[string]string{"status": "status must be one of todo, in_progress, done"})
	}

	ctx2, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	query := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	res, err := r.db.ExecContext(ctx2, query, status, now, id, ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.ErrNotFound
	}

	return r.GetByID(ctx, id, ownerID)
}

// Delete removes one task and reports what was removed.
func (r *TaskRepo) Delete(ctx context.Context, id, ownerID int64) (*models.TaskSummary, error) {
	current, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.ErrNotFound
	}

	return &models.TaskSummary{ID: current.ID, Title: current.Title, ProjectName: current.ProjectName}, nil
}

// ListForOwner returns tasks across all of the owner's projects, capped at
// 100 rows. A ProjectID filter naming someone else's project is refused
// with AccessDenied; naming a missing one is NotFound.
func (r *TaskRepo) ListForOwner(ctx context.Context, ownerID int64, filter TaskFilter, sort TaskSort) ([]models.Task, error) {
	if filter.Status != "" && !models.ValidTaskStatus(filter.Status) {
		return nil, apperr.Validation(map[string]string{"status": "unknown task status"})
	}
	if filter.Priority != "" && !models.ValidTaskPriority(filter.Priority) {
		return nil, apperr.Validation(map[string]string{"priority": "unknown task priority"})
	}
	if filter.ProjectID != 0 {
		if err := r.checkProjectOwner(ctx, filter.ProjectID, ownerID); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + taskJoinCols + ` FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = $1`
	args := []any{ownerID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND t.status = $" + strconv.Itoa(len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += " AND t.priority = $" + strconv.Itoa(len(args))
	}
	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += " AND t.project_id = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY " + sort.orderBy() + " LIMIT " + strconv.Itoa(listCap)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, projectOwner, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, storageErr(err)
		}
		if t.UserID != projectOwner {
			return nil, apperr.Wrap(apperr.ErrInternal,
				"task %d owner %d disagrees with project owner %d", t.ID, t.UserID, projectOwner)
		}
		tasks = append(tasks, *t)
	}
	return tasks, storageErr(rows.Err())
}

func (r *TaskRepo) checkProjectOwner(ctx context.Context, projectID, ownerID int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var owner int64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM projects WHERE id = $1", projectID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return storageErr(err)
	}
	if owner != ownerID {
		return apperr.ErrAccessDenied
	}
	return nil
}

// StatsForOwner aggregates the owner's tasks in one query. An owner with
// zero tasks gets a zero completion rate, not a division error.
func (r *TaskRepo) StatsForOwner(ctx context.Context, ownerID int64) (*TaskStats, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN priority = 'urgent' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN due_date IS NOT NULL AND due_date < $1 AND status != 'done' THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE user_id = $2`

	var s TaskStats
	err := r.db.QueryRowContext(ctx, query, time.Now().UTC(), ownerID).Scan(
		&s.Total, &s.Todo, &s.InProgress, &s.Done, &s.HighPriority, &s.UrgentPriority, &s.Overdue,
	)
	if err != nil {
		return nil, storageErr(err)
	}

	if s.Total > 0 {
		s.CompletionRate = int64(math.Round(float64(s.Done) / float64(s.Total) * 100))
	}
	return &s, nil
}

func scanTaskRow(scan func(dest ...any) error) (*models.Task, int64, error) {
	var t models.Task
	var due sql.NullTime
	var projectOwner int64
	err := scan(&t.ID, &t.ProjectID, &t.UserID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &due, &t.CreatedAt, &t.UpdatedAt, &t.ProjectName, &projectOwner)
	if err != nil {
		return nil, 0, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return &t, projectOwner, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
