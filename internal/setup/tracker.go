package setup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
)

type completionRepo interface {
	GetOrCreate(ctx context.Context, orgID uuid.UUID) (*models.SetupCompletion, error)
	MarkCompleted(ctx context.Context, orgID uuid.UUID) error
	MergeCompletionData(ctx context.Context, orgID uuid.UUID, data map[string]any) error
	Reset(ctx context.Context, orgID uuid.UUID) error
}

type cardSynthesizer interface {
	Generate(ctx context.Context, org *models.Organization) (*models.VibeCard, error)
}

type agentLinkEnqueuer interface {
	EnqueueAgentLink(ctx context.Context, orgID uuid.UUID, slug string) error
}

type answersResetter interface {
	ResetAnswers(ctx context.Context, orgID uuid.UUID) error
}

// Tracker owns the onboarding completion lifecycle and its downstream side
// effects: vibe card synthesis and agent-link creation.
type Tracker struct {
	repo   completionRepo
	cards  cardSynthesizer
	jobs   agentLinkEnqueuer
	ledger answersResetter
	logger *zap.Logger
}

// NewTracker creates a setup completion tracker.
func NewTracker(repo completionRepo, cards cardSynthesizer, jobs agentLinkEnqueuer, ledger answersResetter, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{repo: repo, cards: cards, jobs: jobs, ledger: ledger, logger: logger}
}

// Progress returns the organization's setup row, creating it lazily.
func (t *Tracker) Progress(ctx context.Context, orgID uuid.UUID) (*models.SetupCompletion, error) {
	return t.repo.GetOrCreate(ctx, orgID)
}

// Complete marks onboarding finished and runs the completion side effects.
// Vibe card synthesis is best-effort: a failure is flagged in
// completion_data, never returned, because completion must not be blocked
// by a cosmetic feature. Agent-link creation is queued fire-and-forget.
func (t *Tracker) Complete(ctx context.Context, org *models.Organization) error {
	if err := t.repo.MarkCompleted(ctx, org.ID); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if t.cards != nil {
		if _, err := t.cards.Generate(ctx, org); err != nil {
			t.logger.Warn("vibe card generation failed",
				zap.String("organization_id", org.ID.String()), zap.Error(err))
			if mergeErr := t.repo.MergeCompletionData(ctx, org.ID, map[string]any{"vibe_card_generation_failed": true}); mergeErr != nil {
				t.logger.Error("failed to flag vibe card failure", zap.Error(mergeErr))
			}
		}
	}

	if t.jobs != nil {
		if err := t.jobs.EnqueueAgentLink(ctx, org.ID, org.Slug); err != nil {
			t.logger.Warn("agent link enqueue failed",
				zap.String("organization_id", org.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// Reset reverts an organization to in_progress and clears every recorded
// answer. Administrative operation; normal flow never goes backwards.
func (t *Tracker) Reset(ctx context.Context, orgID uuid.UUID) error {
	if err := t.ledger.ResetAnswers(ctx, orgID); err != nil {
		return fmt.Errorf("reset answers: %w", err)
	}
	if err := t.repo.Reset(ctx, orgID); err != nil {
		return fmt.Errorf("reset status: %w", err)
	}
	t.logger.Info("setup reset", zap.String("organization_id", orgID.String()))
	return nil
}
