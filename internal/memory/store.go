package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

// UpdateStrategy controls how UpdateMemory handles near-duplicates.
type UpdateStrategy string

const (
	// StrategyAuto resolves conflicts by confidence/similarity thresholds.
	StrategyAuto UpdateStrategy = "auto"
	// StrategyManual writes nothing and returns the conflict set.
	StrategyManual UpdateStrategy = "manual"
)

// Actions reported by UpdateMemory.
const (
	ActionInserted = "inserted"
	ActionReplace  = "replace"
	ActionKeepBoth = "keep_both"
	ActionConflict = "conflict"
)

// ClassifierSite distinguishes relevance-classifier call sites; the binary
// contract is identical, only the framing differs.
type ClassifierSite string

const (
	SiteStorage     ClassifierSite = "storage"
	SiteQuestionGen ClassifierSite = "question_generation"
	SiteGeneral     ClassifierSite = "general"
)

// Thresholds are the similarity/confidence policy constants of the store.
type Thresholds struct {
	Search            float64 // minimum similarity for retrieval (default 0.8)
	Conflict          float64 // similarity above which a write is a potential duplicate (default 0.85)
	ReplaceConfidence float64 // new-write confidence required to supersede (default 0.9)
	ReplaceSimilarity float64 // match similarity required to supersede (default 0.9)
	SearchLimit       int     // default result cap (default 5)
}

// DefaultThresholds returns the observed production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Search:            0.8,
		Conflict:          0.85,
		ReplaceConfidence: 0.9,
		ReplaceSimilarity: 0.9,
		SearchLimit:       5,
	}
}

type searchRepo interface {
	BulkInsert(ctx context.Context, records []*models.ConversationEmbedding) error
	SearchByEmbedding(ctx context.Context, orgID uuid.UUID, query pgvector.Vector, maxDistance float64, limit int) ([]Match, error)
}

// Store converts conversation text into embeddings, persists them, and
// retrieves the most relevant memories per organization. The log is
// append-only: conflicts are resolved by recency at read time, never by
// deleting rows.
type Store struct {
	repo        searchRepo
	embedder    ai.EmbeddingClient
	completions ai.CompletionClient
	model       string // classifier model
	thresholds  Thresholds
	logger      *zap.Logger
}

// NewStore creates a knowledge store.
func NewStore(repo searchRepo, embedder ai.EmbeddingClient, completions ai.CompletionClient, classifierModel string, thresholds Thresholds, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholds.SearchLimit <= 0 {
		thresholds.SearchLimit = 5
	}
	return &Store{
		repo:        repo,
		embedder:    embedder,
		completions: completions,
		model:       classifierModel,
		thresholds:  thresholds,
		logger:      logger,
	}
}

// ProcessBusinessConversations embeds every segment and bulk-inserts the
// resulting records for the organization.
func (s *Store) ProcessBusinessConversations(ctx context.Context, orgID uuid.UUID, segments []string, segType string, metadata map[string]any) error {
	if len(segments) == 0 {
		return nil
	}
	vectors, err := s.embedder.Embed(ctx, segments)
	if err != nil {
		return fmt.Errorf("embed segments: %w", err)
	}
	records := make([]*models.ConversationEmbedding, len(segments))
	for i, text := range segments {
		records[i] = &models.ConversationEmbedding{
			OrganizationID: orgID,
			Text:           text,
			SegmentType:    segType,
			Metadata:       metadata,
			Embedding:      pgvector.NewVector(vectors[i]),
		}
	}
	if err := s.repo.BulkInsert(ctx, records); err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}
	return nil
}

// SearchSimilarConversations embeds the query and returns matches above the
// similarity threshold. Zero threshold/limit fall back to the store defaults.
func (s *Store) SearchSimilarConversations(ctx context.Context, orgID uuid.UUID, query string, threshold float64, limit int) ([]Match, error) {
	if threshold <= 0 {
		threshold = s.thresholds.Search
	}
	if limit <= 0 {
		limit = s.thresholds.SearchLimit
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.repo.SearchByEmbedding(ctx, orgID, pgvector.NewVector(vectors[0]), 1-threshold, limit)
}

// UpdateResult reports what UpdateMemory did with a candidate write.
type UpdateResult struct {
	Action    string  `json:"action"`
	Conflicts []Match `json:"conflicts,omitempty"`
}

// UpdateMemory writes a candidate fact, resolving near-duplicates. With the
// auto strategy a confident write over a strong match is recorded as a
// replacement (the new row supersedes by recency; the old row stays), and
// anything else keeps both. With the manual strategy nothing is written and
// the conflicts are returned for external resolution.
func (s *Store) UpdateMemory(ctx context.Context, orgID uuid.UUID, text string, confidence float64, strategy UpdateStrategy) (*UpdateResult, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed candidate: %w", err)
	}
	embedding := pgvector.NewVector(vectors[0])

	conflicts, err := s.repo.SearchByEmbedding(ctx, orgID, embedding, 1-s.thresholds.Conflict, s.thresholds.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("conflict search: %w", err)
	}

	record := &models.ConversationEmbedding{
		OrganizationID: orgID,
		Text:           text,
		SegmentType:    models.SegmentConversation,
		Metadata:       map[string]any{"confidence": confidence},
		Embedding:      embedding,
	}

	if len(conflicts) == 0 {
		if err := s.repo.BulkInsert(ctx, []*models.ConversationEmbedding{record}); err != nil {
			return nil, fmt.Errorf("insert memory: %w", err)
		}
		return &UpdateResult{Action: ActionInserted}, nil
	}

	if strategy == StrategyManual {
		return &UpdateResult{Action: ActionConflict, Conflicts: conflicts}, nil
	}

	action := ActionKeepBoth
	if confidence > s.thresholds.ReplaceConfidence && conflicts[0].Similarity > s.thresholds.ReplaceSimilarity {
		action = ActionReplace
	}
	if err := s.repo.BulkInsert(ctx, []*models.ConversationEmbedding{record}); err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	s.logger.Debug("memory conflict resolved",
		zap.String("organization_id", orgID.String()),
		zap.String("action", action),
		zap.Float64("confidence", confidence),
		zap.Float64("best_similarity", conflicts[0].Similarity))
	return &UpdateResult{Action: action, Conflicts: conflicts}, nil
}

// IsRelevant classifies an exchange as worth remembering. Binary contract,
// temperature zero, minimal tokens. Any failure defaults to relevant so
// user-provided information is never silently discarded.
func (s *Store) IsRelevant(ctx context.Context, exchange string, site ClassifierSite) bool {
	if s.completions == nil {
		return true
	}
	reply, err := s.completions.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: classifierPrompt(site)},
		{Role: ai.RoleUser, Content: exchange},
	}, ai.CallOptions{Model: s.model, Temperature: 0, MaxTokens: 3})
	if err != nil {
		s.logger.Warn("relevance classifier failed, defaulting to relevant", zap.Error(err))
		return true
	}
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "irrelevant")
}

func classifierPrompt(site ClassifierSite) string {
	base := "You label whether a chat exchange contains lasting information about a business. " +
		"Reply with exactly one word: relevant or irrelevant."
	switch site {
	case SiteStorage:
		return base + " Only facts worth remembering long-term count as relevant; small talk, errors and meta-conversation do not."
	case SiteQuestionGen:
		return base + " Judge whether the exchange should influence what to ask the business next."
	default:
		return base
	}
}
