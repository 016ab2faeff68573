package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
)

// Project statuses.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectOnHold    = "on_hold"
	ProjectCancelled = "cancelled"
)

// Project belongs to exactly one user. UserID is set at creation and is
// never updated afterwards.
type Project struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectPatch carries a partial update. Nil means "leave unchanged".
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

// ValidateProjectFields validates name/description/status after trimming.
// Callers pass the post-trim values that will actually be persisted.
func ValidateProjectFields(name, description, status string) error {
	fields := map[string]string{}

	if n := utf8.RuneCountInString(name); n < 3 || n > 100 {
		fields["name"] = "name must be between 3 and 100 characters"
	}
	if utf8.RuneCountInString(description) > 500 {
		fields["description"] = "description must be at most 500 characters"
	}
	if !ValidProjectStatus(status) {
		fields["status"] = "status must be one of active, completed, on_hold, cancelled"
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// TrimProjectInput normalizes user supplied name/description.
func TrimProjectInput(name, description string) (string, string) {
	return strings.TrimSpace(name), strings.TrimSpace(description)
}
