package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

type fakeRepo struct {
	matches         []Match
	searchErr       error
	inserted        [][]*models.ConversationEmbedding
	lastMaxDistance float64
	lastLimit       int
}

func (f *fakeRepo) BulkInsert(ctx context.Context, records []*models.ConversationEmbedding) error {
	f.inserted = append(f.inserted, records)
	return nil
}

func (f *fakeRepo) SearchByEmbedding(ctx context.Context, orgID uuid.UUID, query pgvector.Vector, maxDistance float64, limit int) ([]Match, error) {
	f.lastMaxDistance = maxDistance
	f.lastLimit = limit
	return f.matches, f.searchErr
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type fakeClassifier struct {
	reply string
	err   error
}

func (f *fakeClassifier) Complete(ctx context.Context, messages []ai.Message, opts ai.CallOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeClassifier) CompleteStructured(ctx context.Context, system string, history []ai.Message, schema ai.StructuredSchema, opts ai.CallOptions) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func newTestStore(repo *fakeRepo, classifier ai.CompletionClient) *Store {
	return NewStore(repo, fakeEmbedder{}, classifier, "gpt-4o-mini", DefaultThresholds(), nil)
}

func TestProcessBusinessConversationsEmbedsEverySegment(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(repo, nil)
	orgID := uuid.New()

	err := store.ProcessBusinessConversations(context.Background(), orgID,
		[]string{"hours: 9-6", "location: Oakland"}, models.SegmentConversation, map[string]any{"source": "chat"})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	require.Len(t, repo.inserted[0], 2)
	assert.Equal(t, "hours: 9-6", repo.inserted[0][0].Text)
	assert.Equal(t, orgID, repo.inserted[0][1].OrganizationID)
}

func TestProcessBusinessConversationsSkipsEmptyInput(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(repo, nil)
	require.NoError(t, store.ProcessBusinessConversations(context.Background(), uuid.New(), nil, models.SegmentConversation, nil))
	assert.Empty(t, repo.inserted)
}

func TestSearchUsesDefaultsForZeroValues(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(repo, nil)

	_, err := store.SearchSimilarConversations(context.Background(), uuid.New(), "when are you open", 0, 0)
	require.NoError(t, err)

	// default similarity threshold 0.8 -> cosine distance cap 0.2
	assert.InDelta(t, 0.2, repo.lastMaxDistance, 1e-9)
	assert.Equal(t, 5, repo.lastLimit)
}

func TestSearchHonorsExplicitThreshold(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(repo, nil)

	_, err := store.SearchSimilarConversations(context.Background(), uuid.New(), "query", 0.9, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, repo.lastMaxDistance, 1e-9)
	assert.Equal(t, 2, repo.lastLimit)
}

func TestUpdateMemoryInsertsWithoutConflicts(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(repo, nil)

	res, err := store.UpdateMemory(context.Background(), uuid.New(), "we now close at 8pm", 0.95, StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, ActionInserted, res.Action)
	assert.Len(t, repo.inserted, 1)
}

func TestUpdateMemoryManualStrategyWritesNothing(t *testing.T) {
	repo := &fakeRepo{matches: []Match{{Text: "we close at 6pm", Similarity: 0.93}}}
	store := newTestStore(repo, nil)

	res, err := store.UpdateMemory(context.Background(), uuid.New(), "we close at 8pm", 0.95, StrategyManual)
	require.NoError(t, err)
	assert.Equal(t, ActionConflict, res.Action)
	assert.Len(t, res.Conflicts, 1)
	assert.Empty(t, repo.inserted)
}

func TestUpdateMemoryAutoReplaceNeedsConfidenceAndSimilarity(t *testing.T) {
	t.Run("confident write over strong match replaces", func(t *testing.T) {
		repo := &fakeRepo{matches: []Match{{Text: "we close at 6pm", Similarity: 0.92}}}
		store := newTestStore(repo, nil)

		res, err := store.UpdateMemory(context.Background(), uuid.New(), "we close at 8pm", 0.95, StrategyAuto)
		require.NoError(t, err)
		assert.Equal(t, ActionReplace, res.Action)
		assert.Len(t, repo.inserted, 1, "the new fact is appended; the old row stays")
	})

	t.Run("low confidence keeps both", func(t *testing.T) {
		repo := &fakeRepo{matches: []Match{{Text: "we close at 6pm", Similarity: 0.92}}}
		store := newTestStore(repo, nil)

		res, err := store.UpdateMemory(context.Background(), uuid.New(), "maybe 8pm now", 0.7, StrategyAuto)
		require.NoError(t, err)
		assert.Equal(t, ActionKeepBoth, res.Action)
		assert.Len(t, repo.inserted, 1)
	})

	t.Run("weak similarity keeps both", func(t *testing.T) {
		repo := &fakeRepo{matches: []Match{{Text: "we close at 6pm", Similarity: 0.87}}}
		store := newTestStore(repo, nil)

		res, err := store.UpdateMemory(context.Background(), uuid.New(), "we close at 8pm", 0.95, StrategyAuto)
		require.NoError(t, err)
		assert.Equal(t, ActionKeepBoth, res.Action)
	})
}

func TestIsRelevantParsesClassifierReply(t *testing.T) {
	store := newTestStore(&fakeRepo{}, &fakeClassifier{reply: "  Irrelevant"})
	assert.False(t, store.IsRelevant(context.Background(), "nice weather", SiteStorage))

	store = newTestStore(&fakeRepo{}, &fakeClassifier{reply: "relevant"})
	assert.True(t, store.IsRelevant(context.Background(), "we sell tacos", SiteStorage))
}

func TestIsRelevantDefaultsToRelevantOnFailure(t *testing.T) {
	store := newTestStore(&fakeRepo{}, &fakeClassifier{err: errors.New("timeout")})
	assert.True(t, store.IsRelevant(context.Background(), "anything", SiteGeneral))

	store = newTestStore(&fakeRepo{}, nil)
	assert.True(t, store.IsRelevant(context.Background(), "anything", SiteGeneral))
}
