package models

import (
	"time"

	"github.com/google/uuid"
)

// Field types a business info question can collect.
const (
	FieldTypeText           = "text"
	FieldTypeMultipleChoice = "multiple_choice"
	FieldTypeBoolean        = "boolean"
	FieldTypeNumber         = "number"
)

// BusinessInfoField is one asked question in an organization's ledger.
// Rows are immutable once created except for the unanswered -> answered
// transition; superseded questions get new rows with new field names.
type BusinessInfoField struct {
	ID               uuid.UUID `json:"id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	FieldName        string    `json:"field_name"` // stable snake_case key, natural key within the org
	QuestionTemplate string    `json:"question_template"`
	FieldType        string    `json:"field_type"`
	MultipleChoices  []string  `json:"multiple_choices,omitempty"`
	AllowMultiple    bool      `json:"allow_multiple"`
	IsAnswered       bool      `json:"is_answered"`
	FieldValue       string    `json:"field_value,omitempty"`
	Confidence       float64   `json:"confidence,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
