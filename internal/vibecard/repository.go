// Package vibecard synthesizes and stores the branded summary card
// generated from onboarding answers.
package vibecard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chayo-app/backend/internal/models"
)

// Repository handles vibe card persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a vibe cards repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the card keyed by organization_id, so regeneration is safe.
func (r *Repository) Upsert(ctx context.Context, card *models.VibeCard) error {
	const q = `INSERT INTO vibe_cards
		(id, organization_id, business_name, business_type, origin_story, value_badges, personality_traits,
		 color_primary, color_secondary, color_accent, vibe_aesthetic, why_different, perfect_for, customer_love,
		 location, website, contact_email)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (organization_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			business_type = EXCLUDED.business_type,
			origin_story = EXCLUDED.origin_story,
			value_badges = EXCLUDED.value_badges,
			personality_traits = EXCLUDED.personality_traits,
			color_primary = EXCLUDED.color_primary,
			color_secondary = EXCLUDED.color_secondary,
			color_accent = EXCLUDED.color_accent,
			vibe_aesthetic = EXCLUDED.vibe_aesthetic,
			why_different = EXCLUDED.why_different,
			perfect_for = EXCLUDED.perfect_for,
			customer_love = EXCLUDED.customer_love,
			location = EXCLUDED.location,
			website = EXCLUDED.website,
			contact_email = EXCLUDED.contact_email,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		card.OrganizationID, card.BusinessName, card.BusinessType, card.OriginStory,
		card.ValueBadges, card.PersonalityTraits,
		card.VibeColors.Primary, card.VibeColors.Secondary, card.VibeColors.Accent,
		card.VibeAesthetic, card.WhyDifferent, card.PerfectFor, card.CustomerLove,
		card.Location, card.Website, card.ContactEmail).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
}

// GetByOrganization returns the organization's card, or nil if none exists.
func (r *Repository) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.VibeCard, error) {
	const q = `SELECT id, organization_id, business_name, business_type, origin_story,
		COALESCE(value_badges, '{}'), COALESCE(personality_traits, '{}'),
		color_primary, color_secondary, color_accent, vibe_aesthetic, why_different,
		COALESCE(perfect_for, '{}'), customer_love,
		COALESCE(location, ''), COALESCE(website, ''), COALESCE(contact_email, ''),
		created_at, updated_at
		FROM vibe_cards WHERE organization_id = $1`
	var card models.VibeCard
	err := r.pool.QueryRow(ctx, q, orgID).Scan(
		&card.ID, &card.OrganizationID, &card.BusinessName, &card.BusinessType, &card.OriginStory,
		&card.ValueBadges, &card.PersonalityTraits,
		&card.VibeColors.Primary, &card.VibeColors.Secondary, &card.VibeColors.Accent,
		&card.VibeAesthetic, &card.WhyDifferent, &card.PerfectFor, &card.CustomerLove,
		&card.Location, &card.Website, &card.ContactEmail,
		&card.CreatedAt, &card.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}
