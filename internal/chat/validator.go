package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chayo-app/backend/pkg/ai"
)

// Verdict is the outcome of validating a user message against a pending
// question. The zero value means "not answered".
type Verdict struct {
	Answered   bool    `json:"answered"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Validator decides whether free-form user text answers a pending question.
// Failures never escape this boundary: a false negative only re-asks the
// question, while a false positive would corrupt the ledger.
type Validator struct {
	client ai.CompletionClient
	model  string
	logger *zap.Logger
}

// NewValidator creates an answer validator.
func NewValidator(client ai.CompletionClient, model string, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{client: client, model: model, logger: logger}
}

// Validate runs one structured AI call over the latest user text and the
// pending question, returning the zero Verdict on any failure.
func (v *Validator) Validate(ctx context.Context, conversationText, questionText string) Verdict {
	system := "You check whether a user's message answers a specific onboarding question. " +
		"Extract the answer verbatim where possible and score your confidence between 0 and 1."
	prompt := fmt.Sprintf("Question asked: %q\nUser's message: %q", questionText, conversationText)

	raw, err := v.client.CompleteStructured(ctx, system,
		[]ai.Message{{Role: ai.RoleUser, Content: prompt}},
		validationSchema(),
		ai.CallOptions{Model: v.model, Temperature: 0.1, MaxTokens: 300})
	if err != nil {
		v.logger.Warn("answer validation failed, treating as unanswered", zap.Error(err))
		return Verdict{}
	}
	var verdict Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		v.logger.Warn("answer validation parse failed, treating as unanswered", zap.Error(err))
		return Verdict{}
	}
	return verdict
}
