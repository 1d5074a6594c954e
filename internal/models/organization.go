package models

import (
	"time"

	"github.com/google/uuid"
)

// Website scraping offer states for an organization's onboarding.
const (
	ScrapingUnset   = ""
	ScrapingOffered = "offered"
)

// Organization represents a tenant (the business using the platform).
type Organization struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	OwnerID          uuid.UUID `json:"owner_id"`
	WebsiteScraping  string    `json:"website_scraping,omitempty"`
	MobileAccessCode string    `json:"mobile_access_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Team member roles within an organization.
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// TeamMember links a user to an organization with a role.
type TeamMember struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
