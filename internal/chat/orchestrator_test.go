package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayo-app/backend/internal/memory"
	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/internal/prompts"
	"github.com/chayo-app/backend/pkg/ai"
)

type fakeOrgs struct {
	org            *models.Organization
	resolveErr     error
	updatedName    string
	scrapingMarked bool
}

func (f *fakeOrgs) ResolveOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Organization, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.org, nil
}

func (f *fakeOrgs) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	f.updatedName = name
	return nil
}

func (f *fakeOrgs) MarkWebsiteScrapingOffered(ctx context.Context, id uuid.UUID) error {
	f.scrapingMarked = true
	return nil
}

type answeredCall struct {
	field      string
	value      string
	confidence float64
}

type fakeLedger struct {
	pending  *models.BusinessInfoField
	inserted []*models.BusinessInfoField
	answered []answeredCall
}

func (f *fakeLedger) InsertIfNew(ctx context.Context, field *models.BusinessInfoField) (bool, error) {
	f.inserted = append(f.inserted, field)
	return true, nil
}

func (f *fakeLedger) OldestUnanswered(ctx context.Context, orgID uuid.UUID) (*models.BusinessInfoField, error) {
	return f.pending, nil
}

func (f *fakeLedger) MarkAnswered(ctx context.Context, orgID uuid.UUID, fieldName, value string, confidence float64) error {
	f.answered = append(f.answered, answeredCall{fieldName, value, confidence})
	f.pending = nil
	return nil
}

type fakeTracker struct {
	completion   *models.SetupCompletion
	progressErr  error
	completeCall int
}

func (f *fakeTracker) Progress(ctx context.Context, orgID uuid.UUID) (*models.SetupCompletion, error) {
	if f.progressErr != nil {
		return nil, f.progressErr
	}
	return f.completion, nil
}

func (f *fakeTracker) Complete(ctx context.Context, org *models.Organization) error {
	f.completeCall++
	f.completion.SetupStatus = models.SetupCompleted
	return nil
}

type fakeMemory struct {
	relevant  bool
	stored    [][]string
	matches   []memory.Match
	searchErr error
}

func (f *fakeMemory) IsRelevant(ctx context.Context, exchange string, site memory.ClassifierSite) bool {
	return f.relevant
}

func (f *fakeMemory) ProcessBusinessConversations(ctx context.Context, orgID uuid.UUID, segments []string, segType string, metadata map[string]any) error {
	f.stored = append(f.stored, segments)
	return nil
}

func (f *fakeMemory) SearchSimilarConversations(ctx context.Context, orgID uuid.UUID, query string, threshold float64, limit int) ([]memory.Match, error) {
	return f.matches, f.searchErr
}

type fakePrompts struct {
	lastTrainingContext string
	lastMode            prompts.Mode
}

func (f *fakePrompts) BuildSystemPrompt(mode prompts.Mode, locale, trainingContext string, completed bool) (string, error) {
	f.lastMode = mode
	f.lastTrainingContext = trainingContext
	return "system prompt for " + string(mode), nil
}

type fakeValidator struct {
	verdict Verdict
}

func (f *fakeValidator) Validate(ctx context.Context, conversationText, questionText string) Verdict {
	return f.verdict
}

// fakeAI serves scripted structured responses keyed by schema name, FIFO.
type fakeAI struct {
	structured map[string][]json.RawMessage
	err        error
	calls      []string
}

func (f *fakeAI) Complete(ctx context.Context, messages []ai.Message, opts ai.CallOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAI) CompleteStructured(ctx context.Context, system string, history []ai.Message, schema ai.StructuredSchema, opts ai.CallOptions) (json.RawMessage, error) {
	f.calls = append(f.calls, schema.Name)
	if f.err != nil {
		return nil, f.err
	}
	queue := f.structured[schema.Name]
	if len(queue) == 0 {
		panic("no scripted response for schema " + schema.Name)
	}
	resp := queue[0]
	f.structured[schema.Name] = queue[1:]
	return resp, nil
}

type fixture struct {
	orgs      *fakeOrgs
	ledger    *fakeLedger
	tracker   *fakeTracker
	memory    *fakeMemory
	prompts   *fakePrompts
	validator *fakeValidator
	client    *fakeAI
	o         *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		orgs: &fakeOrgs{org: &models.Organization{
			ID:              uuid.New(),
			Name:            "Taqueria Lupita",
			Slug:            "taqueria-lupita",
			WebsiteScraping: models.ScrapingOffered,
		}},
		ledger:    &fakeLedger{},
		tracker:   &fakeTracker{completion: &models.SetupCompletion{SetupStatus: models.SetupInProgress}},
		memory:    &fakeMemory{},
		prompts:   &fakePrompts{},
		validator: &fakeValidator{},
		client:    &fakeAI{structured: make(map[string][]json.RawMessage)},
	}
	f.o = NewOrchestrator(f.orgs, f.ledger, f.tracker, f.memory, f.prompts, f.validator, f.client, "gpt-4o", nil)
	return f
}

func (f *fixture) script(schema string, payload any) {
	raw, _ := json.Marshal(payload)
	f.client.structured[schema] = append(f.client.structured[schema], raw)
}

func userTurn(texts ...string) []ai.Message {
	var msgs []ai.Message
	for i, t := range texts {
		role := ai.RoleUser
		if i%2 == 1 {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: t})
	}
	return msgs
}

func TestProcessChatRequiresAuthentication(t *testing.T) {
	f := newFixture()
	_, err := f.o.ProcessChat(context.Background(), Request{UserID: uuid.Nil})
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestProcessChatWrapsOrganizationResolutionFailure(t *testing.T) {
	f := newFixture()
	f.orgs.resolveErr = errors.New("database down")
	_, err := f.o.ProcessChat(context.Background(), Request{UserID: uuid.New(), Email: "x@y.com"})
	assert.ErrorIs(t, err, ErrOrganizationResolution)
}

func TestFirstTurnOffersWebsiteScraping(t *testing.T) {
	f := newFixture()
	f.orgs.org.WebsiteScraping = models.ScrapingUnset

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("hola"),
		Locale:   "es",
	})
	require.NoError(t, err)

	assert.True(t, f.orgs.scrapingMarked)
	assert.Contains(t, resp.AIMessage, "Chayo")
	assert.False(t, resp.SetupCompleted)
	assert.Empty(t, f.client.calls, "the welcome turn must not spend an AI call")
}

func TestOnboardingStoresGeneratedQuestion(t *testing.T) {
	f := newFixture()
	f.script("onboarding_turn", onboardingTurn{
		Message:         "What kind of food do you serve?",
		Status:          "collecting",
		FieldName:       "business_type",
		FieldType:       models.FieldTypeMultipleChoice,
		MultipleChoices: []string{"Tacos", "Mariscos", "Both"},
	})

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("hi", "welcome", "let's start"),
	})
	require.NoError(t, err)

	assert.Equal(t, "What kind of food do you serve?", resp.AIMessage)
	assert.Equal(t, []string{"Tacos", "Mariscos", "Both"}, resp.MultipleChoices)
	require.Len(t, f.ledger.inserted, 1)
	assert.Equal(t, "business_type", f.ledger.inserted[0].FieldName)
	assert.Equal(t, models.FieldTypeMultipleChoice, f.ledger.inserted[0].FieldType)
	assert.False(t, resp.SetupCompleted)
}

func TestEmptyConversationStartsWithFirstQuestion(t *testing.T) {
	f := newFixture()
	f.script("onboarding_turn", onboardingTurn{
		Message:   "What's your business called?",
		Status:    "collecting",
		FieldName: "business_name",
		FieldType: models.FieldTypeText,
	})

	resp, err := f.o.ProcessChat(context.Background(), Request{UserID: uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, "What's your business called?", resp.AIMessage)
	assert.False(t, resp.SetupCompleted)
	require.Len(t, f.ledger.inserted, 1)
	assert.Equal(t, "business_name", f.ledger.inserted[0].FieldName)
}

func TestPendingQuestionReservedVerbatimWhenUnanswered(t *testing.T) {
	f := newFixture()
	f.ledger.pending = &models.BusinessInfoField{
		FieldName:        "business_hours",
		QuestionTemplate: "What are your opening hours?",
		MultipleChoices:  []string{"Mornings", "Evenings"},
	}
	f.validator.verdict = Verdict{} // not answered

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("tell me a joke"),
	})
	require.NoError(t, err)

	assert.Equal(t, "What are your opening hours?", resp.AIMessage)
	assert.Equal(t, []string{"Mornings", "Evenings"}, resp.MultipleChoices)
	assert.Empty(t, f.ledger.answered)
	assert.Empty(t, f.client.calls, "re-serving a pending question must not spend an AI call")
}

func TestConfidentAnswerIsRecordedBeforeNextQuestion(t *testing.T) {
	f := newFixture()
	f.ledger.pending = &models.BusinessInfoField{
		FieldName:        "business_hours",
		QuestionTemplate: "What are your opening hours?",
	}
	f.validator.verdict = Verdict{Answered: true, Answer: "9am to 6pm", Confidence: 0.93}
	f.script("onboarding_turn", onboardingTurn{Message: "Where are you located?", Status: "collecting", FieldName: "location", FieldType: models.FieldTypeText})

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("we open 9am to 6pm"),
	})
	require.NoError(t, err)

	require.Len(t, f.ledger.answered, 1)
	assert.Equal(t, answeredCall{"business_hours", "9am to 6pm", 0.93}, f.ledger.answered[0])
	assert.Equal(t, "Where are you located?", resp.AIMessage)
}

func TestZeroConfidenceAnswerIsRejected(t *testing.T) {
	f := newFixture()
	f.ledger.pending = &models.BusinessInfoField{
		FieldName:        "location",
		QuestionTemplate: "Where are you located?",
	}
	f.validator.verdict = Verdict{Answered: true, Answer: "somewhere", Confidence: 0}

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("somewhere I guess"),
	})
	require.NoError(t, err)

	assert.Empty(t, f.ledger.answered)
	assert.Equal(t, "Where are you located?", resp.AIMessage)
}

func TestBusinessNameAnswerRenamesOrganization(t *testing.T) {
	f := newFixture()
	f.ledger.pending = &models.BusinessInfoField{
		FieldName:        "business_name",
		QuestionTemplate: "What's your business called?",
	}
	f.validator.verdict = Verdict{Answered: true, Answer: "  Lupita's Tacos  ", Confidence: 0.99}
	f.script("onboarding_turn", onboardingTurn{Message: "Great! What do you sell?", Status: "collecting", FieldName: "business_type", FieldType: models.FieldTypeText})

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("Lupita's Tacos"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Lupita's Tacos", f.orgs.updatedName)
	assert.Equal(t, "Lupita's Tacos", resp.Organization.Name)
}

func TestCompletionSignalYieldsBusinessReplySameTurn(t *testing.T) {
	f := newFixture()
	f.script("onboarding_turn", onboardingTurn{Message: "That's everything, thanks!", Status: "Setup_Complete"})
	f.script("business_turn", businessTurn{Message: "Your profile is ready. How can I help today?"})

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("that's all I have"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.tracker.completeCall)
	assert.True(t, resp.SetupCompleted)
	assert.Equal(t, "Your profile is ready. How can I help today?", resp.AIMessage)
	assert.Equal(t, []string{"onboarding_turn", "business_turn"}, f.client.calls)
}

func TestBusinessModeInjectsTrainingContext(t *testing.T) {
	f := newFixture()
	f.tracker.completion.SetupStatus = models.SetupCompleted
	f.memory.matches = []memory.Match{
		{Text: "business_hours: 9am to 6pm", Similarity: 0.91},
		{Text: "location: Oakland", Similarity: 0.88},
	}
	f.script("business_turn", businessTurn{Message: "You're open 9am to 6pm."})

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("when are we open?"),
	})
	require.NoError(t, err)

	assert.Equal(t, prompts.ModeBusiness, f.prompts.lastMode)
	assert.Contains(t, f.prompts.lastTrainingContext, "business_hours: 9am to 6pm")
	assert.Contains(t, f.prompts.lastTrainingContext, "location: Oakland")
	assert.True(t, resp.SetupCompleted)
}

func TestAIQuotaFailureDegradesToApology(t *testing.T) {
	f := newFixture()
	f.client.err = &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}

	resp, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("hello again"),
	})
	require.NoError(t, err, "AI failures must degrade to a message, not an error")
	assert.Contains(t, resp.AIMessage, "a lot of requests")
	assert.False(t, resp.SetupCompleted)
}

func TestRelevantExchangeIsRemembered(t *testing.T) {
	f := newFixture()
	f.memory.relevant = true
	f.script("onboarding_turn", onboardingTurn{Message: "Next question", Status: "collecting", FieldName: "x", FieldType: models.FieldTypeText})

	_, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: []ai.Message{
			{Role: ai.RoleAssistant, Content: "What do you sell?"},
			{Role: ai.RoleUser, Content: "Birria tacos"},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.memory.stored, 1)
	assert.Equal(t, []string{"Q: What do you sell?\nA: Birria tacos"}, f.memory.stored[0])
}

func TestIrrelevantExchangeIsNotRemembered(t *testing.T) {
	f := newFixture()
	f.memory.relevant = false
	f.script("onboarding_turn", onboardingTurn{Message: "Next question", Status: "collecting", FieldName: "x", FieldType: models.FieldTypeText})

	_, err := f.o.ProcessChat(context.Background(), Request{
		UserID:   uuid.New(),
		Messages: userTurn("nice weather today"),
	})
	require.NoError(t, err)
	assert.Empty(t, f.memory.stored)
}

func TestCompletionSignalNormalization(t *testing.T) {
	for _, status := range []string{"setup_complete", "SETUP_COMPLETE", " onboarding_complete ", "Onboarding_Completed", "completed"} {
		assert.True(t, isCompletionSignal(status), status)
	}
	for _, status := range []string{"collecting", "", "complete", "done"} {
		assert.False(t, isCompletionSignal(status), status)
	}
}

func TestFieldTypeDefaultsToText(t *testing.T) {
	assert.Equal(t, models.FieldTypeText, fieldTypeOrDefault("banana"))
	assert.Equal(t, models.FieldTypeText, fieldTypeOrDefault(""))
	assert.Equal(t, models.FieldTypeBoolean, fieldTypeOrDefault(models.FieldTypeBoolean))
}
