package chat

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chayo-app/backend/internal/middleware"
	"github.com/chayo-app/backend/pkg/ai"
	"github.com/chayo-app/backend/pkg/response"
)

// progressPublisher delivers progress phase events to the caller's
// realtime channel.
type progressPublisher interface {
	Publish(channelID uuid.UUID, event string, payload interface{})
}

// Handler exposes the chat orchestrator over HTTP.
type Handler struct {
	orchestrator *Orchestrator
	hub          progressPublisher
}

// NewHandler creates a chat handler.
func NewHandler(orchestrator *Orchestrator, hub progressPublisher) *Handler {
	return &Handler{orchestrator: orchestrator, hub: hub}
}

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	Messages []ai.Message `json:"messages" binding:"required"`
	Locale   string       `json:"locale"`
}

// ProcessChat handles POST /chat.
func (h *Handler) ProcessChat(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	email, _ := c.MustGet(middleware.ContextUserEmail).(string)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var progress ProgressFunc
	if h.hub != nil {
		progress = func(phase string) {
			h.hub.Publish(userID, "chat_progress", gin.H{"phase": phase})
		}
	}

	resp, err := h.orchestrator.ProcessChat(c.Request.Context(), Request{
		UserID:   userID,
		Email:    email,
		Messages: req.Messages,
		Locale:   req.Locale,
		Progress: progress,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthentication):
			response.Unauthorized(c, "not authenticated")
		case errors.Is(err, ErrOrganizationResolution):
			response.Internal(c, err.Error())
		default:
			response.Internal(c, "chat turn failed")
		}
		return
	}
	response.OK(c, resp)
}
