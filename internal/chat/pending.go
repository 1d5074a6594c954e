package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

// resolvePending fetches the oldest unanswered question and, when the
// latest user message answers it, records the answer and returns nil so
// the caller generates the next turn. Otherwise the pending record is
// returned unchanged and re-served verbatim.
func (o *Orchestrator) resolvePending(ctx context.Context, st *turnState) (*models.BusinessInfoField, error) {
	pending, err := o.ledger.OldestUnanswered(ctx, st.org.ID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, nil
	}

	// Only the last user message is validated, not the whole transcript.
	latest := lastMessageByRole(st.messages, ai.RoleUser)
	if latest == "" {
		return pending, nil
	}

	st.emit("validating_answer")
	verdict := o.validator.Validate(ctx, latest, pending.QuestionTemplate)
	if !verdict.Answered || verdict.Answer == "" || verdict.Confidence <= 0 {
		return pending, nil
	}

	if err := o.ledger.MarkAnswered(ctx, st.org.ID, pending.FieldName, verdict.Answer, verdict.Confidence); err != nil {
		return nil, err
	}
	o.logger.Debug("question answered",
		zap.String("organization_id", st.org.ID.String()),
		zap.String("field_name", pending.FieldName),
		zap.Float64("confidence", verdict.Confidence))

	if pending.FieldName == businessNameField {
		// Best-effort rename; a failure here must not fail the answer write.
		if name := strings.TrimSpace(verdict.Answer); name != "" {
			if err := o.orgs.UpdateName(ctx, st.org.ID, name); err != nil {
				o.logger.Warn("failed to propagate business name", zap.Error(err),
					zap.String("organization_id", st.org.ID.String()))
			} else {
				st.org.Name = name
			}
		}
	}
	return nil, nil
}
