package models

import (
	"time"

	"github.com/google/uuid"
)

// Setup statuses. Transitions only move forward (in_progress -> completed);
// reset is an explicit administrative operation.
const (
	SetupInProgress = "in_progress"
	SetupCompleted  = "completed"
	SetupAbandoned  = "abandoned"
)

// SetupCompletion tracks per-organization onboarding completion.
type SetupCompletion struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	SetupStatus    string         `json:"setup_status"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CompletionData map[string]any `json:"completion_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsCompleted reports whether onboarding has finished.
func (s *SetupCompletion) IsCompleted() bool {
	return s != nil && s.SetupStatus == SetupCompleted
}
