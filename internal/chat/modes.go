package chat

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/internal/prompts"
	"github.com/chayo-app/backend/pkg/ai"
)

// mode is a state of the per-turn machine. The only transition is
// onboarding -> business, taken at most once per organization.
type mode int

const (
	modeNone mode = iota
	modeOnboarding
	modeBusiness
)

// runMode executes one state and either returns the turn's response
// (next == modeNone) or delegates to the next state. The explicit return
// replaces hidden recursion, so the transition is testable in isolation.
func (o *Orchestrator) runMode(ctx context.Context, st *turnState, m mode) (*Response, mode) {
	if m == modeBusiness {
		return o.runBusiness(ctx, st), modeNone
	}
	return o.runOnboarding(ctx, st)
}

func (o *Orchestrator) runOnboarding(ctx context.Context, st *turnState) (*Response, mode) {
	// A concurrent turn may have finished setup after our initial load;
	// re-check before generating another onboarding question.
	if completion, err := o.setup.Progress(ctx, st.org.ID); err == nil && completion.IsCompleted() {
		st.completion = completion
		st.isOnboarding = false
		return nil, modeBusiness
	}

	if st.org.WebsiteScraping == models.ScrapingUnset && countUserMessages(st.messages) <= 1 {
		if err := o.orgs.MarkWebsiteScrapingOffered(ctx, st.org.ID); err != nil {
			o.logger.Warn("failed to mark scraping offered", zap.Error(err))
		} else {
			st.org.WebsiteScraping = models.ScrapingOffered
		}
		st.emit("website_scraping_offered")
		return &Response{AIMessage: welcomeMessage(st.locale)}, modeNone
	}

	st.emit("generating_question")
	system, err := o.prompts.BuildSystemPrompt(prompts.ModeOnboarding, st.locale, "", false)
	if err != nil {
		o.logger.Error("onboarding prompt build failed", zap.Error(err))
		return &Response{AIMessage: apologyTurnFailed}, modeNone
	}

	raw, err := o.client.CompleteStructured(ctx, system, st.messages, onboardingSchema(),
		ai.CallOptions{Model: o.model, Temperature: 0.6, MaxTokens: 600})
	if err != nil {
		o.logger.Warn("onboarding completion failed", zap.Error(err),
			zap.String("organization_id", st.org.ID.String()))
		return &Response{AIMessage: ai.Apology(err)}, modeNone
	}
	var turn onboardingTurn
	if err := json.Unmarshal(raw, &turn); err != nil {
		o.logger.Warn("onboarding payload parse failed", zap.Error(err))
		return &Response{AIMessage: apologyTurnFailed}, modeNone
	}

	if isCompletionSignal(turn.Status) {
		st.emit("completing_setup")
		if err := o.setup.Complete(ctx, st.org); err != nil {
			o.logger.Error("setup completion failed", zap.Error(err),
				zap.String("organization_id", st.org.ID.String()))
		}
		// Re-fetch and, once confirmed, produce the first business-mode
		// reply in the same turn so the caller never sees a stale
		// "still onboarding" message.
		if completion, err := o.setup.Progress(ctx, st.org.ID); err == nil && completion.IsCompleted() {
			st.completion = completion
			st.isOnboarding = false
			return nil, modeBusiness
		}
		return &Response{AIMessage: turn.Message, SetupCompleted: false}, modeNone
	}

	if turn.FieldName != "" && turn.Message != "" {
		field := &models.BusinessInfoField{
			OrganizationID:   st.org.ID,
			FieldName:        turn.FieldName,
			QuestionTemplate: turn.Message,
			FieldType:        fieldTypeOrDefault(turn.FieldType),
			MultipleChoices:  turn.MultipleChoices,
			AllowMultiple:    turn.AllowMultiple,
		}
		if _, err := o.ledger.InsertIfNew(ctx, field); err != nil {
			o.logger.Warn("failed to store new question", zap.Error(err),
				zap.String("field_name", turn.FieldName))
		}
	}
	return &Response{
		AIMessage:       turn.Message,
		MultipleChoices: turn.MultipleChoices,
		AllowMultiple:   turn.AllowMultiple,
	}, modeNone
}

func (o *Orchestrator) runBusiness(ctx context.Context, st *turnState) *Response {
	st.emit("generating_reply")

	trainingContext := ""
	if query := lastMessageByRole(st.messages, ai.RoleUser); query != "" {
		matches, err := o.memory.SearchSimilarConversations(ctx, st.org.ID, query, 0, 0)
		if err != nil {
			// Retrieval failure is non-fatal; reply without context.
			o.logger.Warn("training context retrieval failed", zap.Error(err),
				zap.String("organization_id", st.org.ID.String()))
		} else {
			var lines []string
			for _, m := range matches {
				lines = append(lines, "- "+m.Text)
			}
			trainingContext = strings.Join(lines, "\n")
		}
	}

	system, err := o.prompts.BuildSystemPrompt(prompts.ModeBusiness, st.locale, trainingContext, true)
	if err != nil {
		o.logger.Error("business prompt build failed", zap.Error(err))
		return &Response{AIMessage: apologyTurnFailed, SetupCompleted: !st.isOnboarding}
	}

	raw, err := o.client.CompleteStructured(ctx, system, st.messages, businessSchema(),
		ai.CallOptions{Model: o.model, Temperature: 0.7, MaxTokens: 800})
	if err != nil {
		o.logger.Warn("business completion failed", zap.Error(err),
			zap.String("organization_id", st.org.ID.String()))
		return &Response{AIMessage: ai.Apology(err), SetupCompleted: !st.isOnboarding}
	}
	var turn businessTurn
	if err := json.Unmarshal(raw, &turn); err != nil {
		o.logger.Warn("business payload parse failed", zap.Error(err))
		return &Response{AIMessage: apologyTurnFailed, SetupCompleted: !st.isOnboarding}
	}
	return &Response{AIMessage: turn.Message, SetupCompleted: !st.isOnboarding}
}

func fieldTypeOrDefault(t string) string {
	switch t {
	case models.FieldTypeText, models.FieldTypeMultipleChoice, models.FieldTypeBoolean, models.FieldTypeNumber:
		return t
	default:
		return models.FieldTypeText
	}
}

func welcomeMessage(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "es") {
		return "¡Hola! Soy Chayo, tu asistente de negocio. Te haré unas preguntas rápidas para conocer tu negocio. " +
			"Si ya tienes un sitio web, compárteme la dirección y leeré la información por ti para ahorrarte tiempo."
	}
	return "Hi! I'm Chayo, your business assistant. I'll ask you a few quick questions to get to know your business. " +
		"If you already have a website, share the address and I'll read it for you to save you time."
}
