// Package chat is the top-level orchestration engine: it resolves the
// tenant, runs the onboarding/business state machine, validates answers
// against the question ledger and feeds the knowledge store.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/memory"
	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/internal/prompts"
	"github.com/chayo-app/backend/pkg/ai"
)

// businessNameField is the ledger key whose answer also renames the org.
const businessNameField = "business_name"

type organizationDirectory interface {
	ResolveOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Organization, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	MarkWebsiteScrapingOffered(ctx context.Context, id uuid.UUID) error
}

type questionLedger interface {
	InsertIfNew(ctx context.Context, f *models.BusinessInfoField) (bool, error)
	OldestUnanswered(ctx context.Context, orgID uuid.UUID) (*models.BusinessInfoField, error)
	MarkAnswered(ctx context.Context, orgID uuid.UUID, fieldName, value string, confidence float64) error
}

type setupTracker interface {
	Progress(ctx context.Context, orgID uuid.UUID) (*models.SetupCompletion, error)
	Complete(ctx context.Context, org *models.Organization) error
}

type knowledgeStore interface {
	IsRelevant(ctx context.Context, exchange string, site memory.ClassifierSite) bool
	ProcessBusinessConversations(ctx context.Context, orgID uuid.UUID, segments []string, segType string, metadata map[string]any) error
	SearchSimilarConversations(ctx context.Context, orgID uuid.UUID, query string, threshold float64, limit int) ([]memory.Match, error)
}

type promptSource interface {
	BuildSystemPrompt(mode prompts.Mode, locale, trainingContext string, completed bool) (string, error)
}

type answerValidator interface {
	Validate(ctx context.Context, conversationText, questionText string) Verdict
}

// ProgressFunc receives UI progress phase names. Fire-and-forget telemetry;
// never awaited for control flow.
type ProgressFunc func(phase string)

// Request is one chat turn from an authenticated user.
type Request struct {
	UserID   uuid.UUID
	Email    string
	Messages []ai.Message
	Locale   string
	Progress ProgressFunc
}

// Response is the result of one chat turn.
type Response struct {
	AIMessage       string               `json:"ai_message"`
	MultipleChoices []string             `json:"multiple_choices,omitempty"`
	AllowMultiple   bool                 `json:"allow_multiple,omitempty"`
	SetupCompleted  bool                 `json:"setup_completed"`
	Organization    *models.Organization `json:"organization"`
}

// Orchestrator is the conductor of a chat turn.
type Orchestrator struct {
	orgs      organizationDirectory
	ledger    questionLedger
	setup     setupTracker
	memory    knowledgeStore
	prompts   promptSource
	validator answerValidator
	client    ai.CompletionClient
	model     string
	logger    *zap.Logger
}

// NewOrchestrator wires the chat engine from its collaborators.
func NewOrchestrator(
	orgs organizationDirectory,
	ledger questionLedger,
	setup setupTracker,
	mem knowledgeStore,
	promptLoader promptSource,
	validator answerValidator,
	client ai.CompletionClient,
	model string,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		orgs:      orgs,
		ledger:    ledger,
		setup:     setup,
		memory:    mem,
		prompts:   promptLoader,
		validator: validator,
		client:    client,
		model:     model,
		logger:    logger,
	}
}

// turnState carries everything one turn needs across the mode machine.
type turnState struct {
	org          *models.Organization
	completion   *models.SetupCompletion
	messages     []ai.Message
	locale       string
	progress     ProgressFunc
	isOnboarding bool
}

func (st *turnState) emit(phase string) {
	if st.progress != nil {
		st.progress(phase)
	}
}

// ProcessChat runs one chat turn. Only authentication and organization
// resolution failures propagate as errors; every AI or downstream failure
// degrades to a displayable message so the caller always gets a response.
func (o *Orchestrator) ProcessChat(ctx context.Context, req Request) (*Response, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrAuthentication
	}

	st := &turnState{messages: req.Messages, locale: req.Locale, progress: req.Progress}
	st.emit("resolving_organization")

	org, err := o.orgs.ResolveOrCreate(ctx, req.UserID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrganizationResolution, err)
	}
	st.org = org

	completion, err := o.setup.Progress(ctx, org.ID)
	if err != nil {
		o.logger.Error("setup progress load failed", zap.Error(err),
			zap.String("organization_id", org.ID.String()))
		return &Response{AIMessage: apologyTurnFailed, Organization: org}, nil
	}
	st.completion = completion
	st.isOnboarding = !completion.IsCompleted()

	resp := o.handleTurn(ctx, st)
	o.rememberExchange(ctx, st)

	resp.Organization = st.org
	return resp, nil
}

// handleTurn resolves a pending question first; otherwise it walks the
// explicit two-state machine until a mode produces a response.
func (o *Orchestrator) handleTurn(ctx context.Context, st *turnState) *Response {
	pending, err := o.resolvePending(ctx, st)
	if err != nil {
		o.logger.Error("pending question resolution failed", zap.Error(err),
			zap.String("organization_id", st.org.ID.String()))
		return &Response{AIMessage: apologyTurnFailed, SetupCompleted: !st.isOnboarding}
	}
	if pending != nil {
		// Re-serve the same question verbatim: retries are idempotent and
		// the question never drifts across failed attempts.
		return &Response{
			AIMessage:       pending.QuestionTemplate,
			MultipleChoices: pending.MultipleChoices,
			AllowMultiple:   pending.AllowMultiple,
			SetupCompleted:  !st.isOnboarding,
		}
	}

	m := modeBusiness
	if st.isOnboarding {
		m = modeOnboarding
	}
	for {
		resp, next := o.runMode(ctx, st, m)
		if next == modeNone {
			return resp
		}
		m = next
	}
}

// rememberExchange persists the latest question/answer pair into the
// knowledge store when the classifier judges it business-relevant.
// Best-effort: failures are logged, never surfaced.
func (o *Orchestrator) rememberExchange(ctx context.Context, st *turnState) {
	userMsg := lastMessageByRole(st.messages, ai.RoleUser)
	if userMsg == "" {
		return
	}
	exchange := userMsg
	if assistantMsg := lastMessageByRole(st.messages, ai.RoleAssistant); assistantMsg != "" {
		exchange = fmt.Sprintf("Q: %s\nA: %s", assistantMsg, userMsg)
	}
	if !o.memory.IsRelevant(ctx, exchange, memory.SiteStorage) {
		return
	}
	err := o.memory.ProcessBusinessConversations(ctx, st.org.ID,
		[]string{exchange}, models.SegmentConversation, map[string]any{"source": "chat"})
	if err != nil {
		o.logger.Warn("failed to store conversation memory", zap.Error(err),
			zap.String("organization_id", st.org.ID.String()))
	}
}

func lastMessageByRole(messages []ai.Message, role string) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

func countUserMessages(messages []ai.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == ai.RoleUser {
			n++
		}
	}
	return n
}
