package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task belongs to exactly one project. UserID is denormalized from the
// owning project at creation for cheap filtering; authorization always
// re-checks it against the project owner and treats a mismatch as data
// corruption.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// ProjectName is filled on reads that join the parent project.
	ProjectName string `json:"project_name,omitempty"`
}

// TaskPatch carries a partial update. Nil means "leave unchanged";
// ClearDueDate removes an existing due date.
type TaskPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// TaskSummary is returned after a delete so the client can confirm what
// was removed.
type TaskSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ProjectName string `json:"project_name"`
}

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

func ValidTaskPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidateTaskFields validates the post-trim values that will be persisted.
// The due date rule (not strictly before now) applies at create and at any
// update that sets it.
func ValidateTaskFields(title, description, status, priority string, dueDate *time.Time, now time.Time) error {
	fields := map[string]string{}

	if n := utf8.RuneCountInString(title); n < 3 || n > 100 {
		fields["title"] = "title must be between 3 and 100 characters"
	}
	if utf8.RuneCountInString(description) > 1000 {
		fields["description"] = "description must be at most 1000 characters"
	}
	if !ValidTaskStatus(status) {
		fields["status"] = "status must be one of todo, in_progress, done"
	}
	if !ValidTaskPriority(priority) {
		fields["priority"] = "priority must be one of low, medium, high, urgent"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	if dueDate != nil && dueDate.Before(now) {
		return apperr.ErrInvalidDueDate
	}
	return nil
}

// TrimTaskInput normalizes user supplied title/description.
func TrimTaskInput(title, description string) (string, string) {
	return strings.TrimSpace(title), strings.TrimSpace(description)
}
