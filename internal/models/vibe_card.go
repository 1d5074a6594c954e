package models

import (
	"time"

	"github.com/google/uuid"
)

// VibeColors is the three-color palette of a vibe card.
type VibeColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// VibeCard is the branded summary synthesized from onboarding answers.
// One row per organization; regenerable.
type VibeCard struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organization_id"`
	BusinessName      string     `json:"business_name"`
	BusinessType      string     `json:"business_type"`
	OriginStory       string     `json:"origin_story"`
	ValueBadges       []string   `json:"value_badges"`
	PersonalityTraits []string   `json:"personality_traits"`
	VibeColors        VibeColors `json:"vibe_colors"`
	VibeAesthetic     string     `json:"vibe_aesthetic"`
	WhyDifferent      string     `json:"why_different"`
	PerfectFor        []string   `json:"perfect_for"`
	CustomerLove      string     `json:"customer_love"`
	Location          string     `json:"location,omitempty"`
	Website           string     `json:"website,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
