package vibecard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

type fakeAnswers struct {
	fields []*models.BusinessInfoField
	err    error
}

func (f *fakeAnswers) ListAnswered(ctx context.Context, orgID uuid.UUID) ([]*models.BusinessInfoField, error) {
	return f.fields, f.err
}

type fakeCards struct {
	saved *models.VibeCard
	err   error
}

func (f *fakeCards) Upsert(ctx context.Context, card *models.VibeCard) error {
	f.saved = card
	return f.err
}

type fakeClient struct {
	raw        json.RawMessage
	err        error
	lastPrompt string
}

func (f *fakeClient) Complete(ctx context.Context, messages []ai.Message, opts ai.CallOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeClient) CompleteStructured(ctx context.Context, system string, history []ai.Message, schema ai.StructuredSchema, opts ai.CallOptions) (json.RawMessage, error) {
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	return f.raw, f.err
}

func payloadJSON(p cardPayload) json.RawMessage {
	raw, _ := json.Marshal(p)
	return raw
}

func TestGenerateBuildsCardFromAnswers(t *testing.T) {
	answers := &fakeAnswers{fields: []*models.BusinessInfoField{
		{FieldName: "business_name", FieldValue: "Lupita's Tacos"},
		{FieldName: "business_type", FieldValue: "taqueria"},
	}}
	payload := cardPayload{
		BusinessName:  "Lupita's Tacos",
		BusinessType:  "Taqueria",
		OriginStory:   "Started from a family recipe.",
		ValueBadges:   []string{"Family recipes", "Fresh daily"},
		VibeAesthetic: "warm-artisanal",
	}
	payload.VibeColors.Primary = "#AA3311"
	payload.VibeColors.Secondary = "#FFEEDD"
	payload.VibeColors.Accent = "#226644"

	cards := &fakeCards{}
	client := &fakeClient{raw: payloadJSON(payload)}
	s := NewSynthesizer(answers, cards, client, "gpt-4o", nil)

	card, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New(), Name: "Lupita's Tacos"})
	require.NoError(t, err)

	assert.Contains(t, client.lastPrompt, "business_type")
	assert.Equal(t, "Lupita's Tacos", card.BusinessName)
	assert.Equal(t, "#AA3311", card.VibeColors.Primary)
	assert.Equal(t, "warm-artisanal", card.VibeAesthetic)
	assert.Same(t, card, cards.saved)
}

func TestGenerateClampsListFields(t *testing.T) {
	payload := cardPayload{BusinessName: "X"}
	payload.ValueBadges = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	payload.PersonalityTraits = []string{"1", "2", "3", "4", "5", "6", "7"}
	payload.PerfectFor = []string{"p1", "p2", "p3", "p4", "p5"}

	cards := &fakeCards{}
	s := NewSynthesizer(&fakeAnswers{}, cards, &fakeClient{raw: payloadJSON(payload)}, "gpt-4o", nil)

	card, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New(), Name: "X"})
	require.NoError(t, err)
	assert.Len(t, card.ValueBadges, maxValueBadges)
	assert.Len(t, card.PersonalityTraits, maxPersonalityTraits)
	assert.Len(t, card.PerfectFor, maxPerfectFor)
}

func TestGenerateFallsBackToOrganizationName(t *testing.T) {
	cards := &fakeCards{}
	s := NewSynthesizer(&fakeAnswers{}, cards, &fakeClient{raw: payloadJSON(cardPayload{})}, "gpt-4o", nil)

	card, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New(), Name: "Fallback Name"})
	require.NoError(t, err)
	assert.Equal(t, "Fallback Name", card.BusinessName)
}

func TestGeneratePropagatesFailures(t *testing.T) {
	t.Run("answers load", func(t *testing.T) {
		s := NewSynthesizer(&fakeAnswers{err: errors.New("db")}, &fakeCards{}, &fakeClient{}, "gpt-4o", nil)
		_, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New()})
		assert.Error(t, err)
	})
	t.Run("synthesis call", func(t *testing.T) {
		s := NewSynthesizer(&fakeAnswers{}, &fakeCards{}, &fakeClient{err: errors.New("timeout")}, "gpt-4o", nil)
		_, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New()})
		assert.Error(t, err)
	})
	t.Run("store", func(t *testing.T) {
		s := NewSynthesizer(&fakeAnswers{}, &fakeCards{err: errors.New("db")}, &fakeClient{raw: payloadJSON(cardPayload{BusinessName: "X"})}, "gpt-4o", nil)
		_, err := s.Generate(context.Background(), &models.Organization{ID: uuid.New()})
		assert.Error(t, err)
	})
}
