package vibecard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/ai"
)

// Caps on the card's list fields; the schema states them and the parser
// clamps as a second line of defense.
const (
	maxValueBadges       = 6
	maxPersonalityTraits = 5
	maxPerfectFor        = 4
)

var aesthetics = []string{
	"modern-minimal", "warm-artisanal", "bold-vibrant",
	"classic-elegant", "playful-fresh", "earthy-natural",
}

type answeredSource interface {
	ListAnswered(ctx context.Context, orgID uuid.UUID) ([]*models.BusinessInfoField, error)
}

type cardStore interface {
	Upsert(ctx context.Context, card *models.VibeCard) error
}

// Synthesizer turns an organization's answered questions into a vibe card
// with a single structured AI call.
type Synthesizer struct {
	answers answeredSource
	cards   cardStore
	client  ai.CompletionClient
	model   string
	logger  *zap.Logger
}

// NewSynthesizer creates a vibe card synthesizer.
func NewSynthesizer(answers answeredSource, cards cardStore, client ai.CompletionClient, model string, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{answers: answers, cards: cards, client: client, model: model, logger: logger}
}

// cardPayload mirrors the structured-output schema.
type cardPayload struct {
	BusinessName      string   `json:"business_name"`
	BusinessType      string   `json:"business_type"`
	OriginStory       string   `json:"origin_story"`
	ValueBadges       []string `json:"value_badges"`
	PersonalityTraits []string `json:"personality_traits"`
	VibeColors        struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
		Accent    string `json:"accent"`
	} `json:"vibe_colors"`
	VibeAesthetic string   `json:"vibe_aesthetic"`
	WhyDifferent  string   `json:"why_different"`
	PerfectFor    []string `json:"perfect_for"`
	CustomerLove  string   `json:"customer_love"`
	Location      string   `json:"location"`
	Website       string   `json:"website"`
	ContactEmail  string   `json:"contact_email"`
}

// Generate reads the answered ledger, synthesizes the card and upserts it.
func (s *Synthesizer) Generate(ctx context.Context, org *models.Organization) (*models.VibeCard, error) {
	answered, err := s.answers.ListAnswered(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	fields := make(map[string]string, len(answered))
	for _, f := range answered {
		fields[f.FieldName] = f.FieldValue
	}
	fieldsJSON, _ := json.Marshal(fields)

	system := "You design a short branded summary card for a small business from its onboarding answers. " +
		"Enhance the wording, keep every fact truthful to the answers, and leave unknown optional fields empty."
	prompt := fmt.Sprintf("Business %q answered these onboarding questions:\n%s", org.Name, fieldsJSON)

	raw, err := s.client.CompleteStructured(ctx, system,
		[]ai.Message{{Role: ai.RoleUser, Content: prompt}},
		ai.StructuredSchema{Name: "vibe_card", Definition: cardSchema()},
		ai.CallOptions{Model: s.model, Temperature: 0.7, MaxTokens: 1200})
	if err != nil {
		return nil, fmt.Errorf("synthesize card: %w", err)
	}

	var payload cardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse card: %w", err)
	}

	card := &models.VibeCard{
		OrganizationID:    org.ID,
		BusinessName:      payload.BusinessName,
		BusinessType:      payload.BusinessType,
		OriginStory:       payload.OriginStory,
		ValueBadges:       clamp(payload.ValueBadges, maxValueBadges),
		PersonalityTraits: clamp(payload.PersonalityTraits, maxPersonalityTraits),
		VibeColors: models.VibeColors{
			Primary:   payload.VibeColors.Primary,
			Secondary: payload.VibeColors.Secondary,
			Accent:    payload.VibeColors.Accent,
		},
		VibeAesthetic: payload.VibeAesthetic,
		WhyDifferent:  payload.WhyDifferent,
		PerfectFor:    clamp(payload.PerfectFor, maxPerfectFor),
		CustomerLove:  payload.CustomerLove,
		Location:      payload.Location,
		Website:       payload.Website,
		ContactEmail:  payload.ContactEmail,
	}
	if card.BusinessName == "" {
		card.BusinessName = org.Name
	}
	if err := s.cards.Upsert(ctx, card); err != nil {
		return nil, fmt.Errorf("store card: %w", err)
	}
	s.logger.Info("vibe card generated", zap.String("organization_id", org.ID.String()))
	return card, nil
}

func clamp(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

func cardSchema() *jsonschema.Definition {
	hexColor := jsonschema.Definition{Type: jsonschema.String, Description: "hex color like #AA5500"}
	stringArray := func(desc string, maxItems int) jsonschema.Definition {
		return jsonschema.Definition{
			Type:        jsonschema.Array,
			Description: fmt.Sprintf("%s (at most %d items)", desc, maxItems),
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		}
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"business_name":      {Type: jsonschema.String},
			"business_type":      {Type: jsonschema.String},
			"origin_story":       {Type: jsonschema.String, Description: "short enhanced narrative of how the business started"},
			"value_badges":       stringArray("short value propositions", maxValueBadges),
			"personality_traits": stringArray("brand personality traits", maxPersonalityTraits),
			"vibe_colors": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"primary":   hexColor,
					"secondary": hexColor,
					"accent":    hexColor,
				},
				Required: []string{"primary", "secondary", "accent"},
			},
			"vibe_aesthetic": {Type: jsonschema.String, Enum: aesthetics},
			"why_different":  {Type: jsonschema.String},
			"perfect_for":    stringArray("ideal customer audiences", maxPerfectFor),
			"customer_love":  {Type: jsonschema.String, Description: "one testimonial-style sentence a happy customer might say"},
			"location":       {Type: jsonschema.String},
			"website":        {Type: jsonschema.String},
			"contact_email":  {Type: jsonschema.String},
		},
		Required: []string{
			"business_name", "business_type", "origin_story", "value_badges",
			"personality_traits", "vibe_colors", "vibe_aesthetic", "why_different",
			"perfect_for", "customer_love", "location", "website", "contact_email",
		},
		AdditionalProperties: false,
	}
}
