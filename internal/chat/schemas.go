package chat

import (
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

// onboardingTurn is the structured payload of an onboarding-mode completion.
type onboardingTurn struct {
	Message         string   `json:"message"`
	Status          string   `json:"status"`
	FieldName       string   `json:"field_name"`
	FieldType       string   `json:"field_type"`
	MultipleChoices []string `json:"multiple_choices"`
	AllowMultiple   bool     `json:"allow_multiple"`
}

// businessTurn is the structured payload of a business-mode completion.
type businessTurn struct {
	Message string `json:"message"`
}

func onboardingSchema() ai.StructuredSchema {
	return ai.StructuredSchema{
		Name: "onboarding_turn",
		Definition: &jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"message": {Type: jsonschema.String, Description: "the next question to ask the user, or a closing message"},
				"status": {Type: jsonschema.String,
					Description: "collecting while onboarding continues; setup_complete once enough is known"},
				"field_name": {Type: jsonschema.String, Description: "stable snake_case key for the question, empty when not asking"},
				"field_type": {Type: jsonschema.String,
					Enum: []string{models.FieldTypeText, models.FieldTypeMultipleChoice, models.FieldTypeBoolean, models.FieldTypeNumber}},
				"multiple_choices": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String},
					Description: "option strings, only for multiple_choice questions"},
				"allow_multiple": {Type: jsonschema.Boolean},
			},
			Required:             []string{"message", "status", "field_name", "field_type", "multiple_choices", "allow_multiple"},
			AdditionalProperties: false,
		},
	}
}

func businessSchema() ai.StructuredSchema {
	return ai.StructuredSchema{
		Name: "business_turn",
		Definition: &jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"message": {Type: jsonschema.String},
			},
			Required:             []string{"message"},
			AdditionalProperties: false,
		},
	}
}

func validationSchema() ai.StructuredSchema {
	return ai.StructuredSchema{
		Name: "answer_validation",
		Definition: &jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"answered":   {Type: jsonschema.Boolean, Description: "whether the user's message answers the question"},
				"answer":     {Type: jsonschema.String, Description: "the extracted answer, empty when not answered"},
				"confidence": {Type: jsonschema.Number, Description: "confidence between 0 and 1"},
			},
			Required:             []string{"answered", "answer", "confidence"},
			AdditionalProperties: false,
		},
	}
}

// Completion-equivalent status signals, matched case-insensitively.
var completionSignals = map[string]struct{}{
	"setup_complete":       {},
	"onboarding_complete":  {},
	"onboarding_completed": {},
	"completed":            {},
}

func isCompletionSignal(status string) bool {
	_, ok := completionSignals[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
