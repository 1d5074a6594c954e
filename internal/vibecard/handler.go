package vibecard

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/response"
)

type regenerateEnqueuer interface {
	EnqueueVibeCardRegenerate(ctx context.Context, orgID uuid.UUID) error
}

// Handler handles vibe card HTTP endpoints.
type Handler struct {
	repo *Repository
	jobs regenerateEnqueuer
}

// NewHandler creates a vibe card handler.
func NewHandler(repo *Repository, jobs regenerateEnqueuer) *Handler {
	return &Handler{repo: repo, jobs: jobs}
}

// Get handles GET /organizations/:id/vibe-card.
func (h *Handler) Get(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	card, err := h.repo.GetByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load vibe card")
		return
	}
	if card == nil {
		response.NotFound(c, "vibe card not generated yet")
		return
	}
	response.OK(c, card)
}

// UpdateRequest is the body for PATCH /organizations/:id/vibe-card.
// Only provided fields are overwritten.
type UpdateRequest struct {
	BusinessName *string            `json:"business_name"`
	OriginStory  *string            `json:"origin_story"`
	WhyDifferent *string            `json:"why_different"`
	CustomerLove *string            `json:"customer_love"`
	VibeColors   *models.VibeColors `json:"vibe_colors"`
	Location     *string            `json:"location"`
	Website      *string            `json:"website"`
	ContactEmail *string            `json:"contact_email"`
}

// Update handles PATCH /organizations/:id/vibe-card (partial edit by owner).
func (h *Handler) Update(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	card, err := h.repo.GetByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load vibe card")
		return
	}
	if card == nil {
		response.NotFound(c, "vibe card not generated yet")
		return
	}
	if req.BusinessName != nil {
		card.BusinessName = *req.BusinessName
	}
	if req.OriginStory != nil {
		card.OriginStory = *req.OriginStory
	}
	if req.WhyDifferent != nil {
		card.WhyDifferent = *req.WhyDifferent
	}
	if req.CustomerLove != nil {
		card.CustomerLove = *req.CustomerLove
	}
	if req.VibeColors != nil {
		card.VibeColors = *req.VibeColors
	}
	if req.Location != nil {
		card.Location = *req.Location
	}
	if req.Website != nil {
		card.Website = *req.Website
	}
	if req.ContactEmail != nil {
		card.ContactEmail = *req.ContactEmail
	}
	if err := h.repo.Upsert(c.Request.Context(), card); err != nil {
		response.Internal(c, "failed to update vibe card")
		return
	}
	response.OK(c, card)
}

// Regenerate handles POST /organizations/:id/vibe-card/regenerate.
// The synthesis runs in the background worker.
func (h *Handler) Regenerate(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if err := h.jobs.EnqueueVibeCardRegenerate(c.Request.Context(), orgID); err != nil {
		response.Internal(c, "failed to queue regeneration")
		return
	}
	response.OK(c, gin.H{"status": "queued"})
}
