package setup

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chayo-app/backend/pkg/response"
)

// Handler handles setup status HTTP endpoints.
type Handler struct {
	tracker *Tracker
}

// NewHandler creates a setup handler.
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// GetStatus handles GET /organizations/:id/setup.
func (h *Handler) GetStatus(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	completion, err := h.tracker.Progress(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load setup status")
		return
	}
	response.OK(c, completion)
}

// Reset handles POST /organizations/:id/setup/reset (admin operation).
func (h *Handler) Reset(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if err := h.tracker.Reset(c.Request.Context(), orgID); err != nil {
		response.Internal(c, "failed to reset setup")
		return
	}
	response.OK(c, gin.H{"status": "reset"})
}
