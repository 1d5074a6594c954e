package questions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chayo-app/backend/pkg/response"
)

// Handler handles question ledger HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByOrganization handles GET /organizations/:id/questions.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	answered, err := h.repo.ListAnswered(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	pending, err := h.repo.ListUnanswered(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, gin.H{"answered": answered, "pending": pending})
}
