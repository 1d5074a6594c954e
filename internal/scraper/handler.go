package scraper

import (
	"context"
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/response"
)

type knowledgeWriter interface {
	ProcessBusinessConversations(ctx context.Context, orgID uuid.UUID, segments []string, segType string, metadata map[string]any) error
}

// ScrapeRequest is the body for POST /organizations/:id/scrape.
type ScrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

// Handler exposes website scraping over HTTP.
type Handler struct {
	client *Client
	store  knowledgeWriter
	logger *zap.Logger
}

// NewHandler creates a scraper handler.
func NewHandler(client *Client, store knowledgeWriter, logger *zap.Logger) *Handler {
	return &Handler{client: client, store: store, logger: logger}
}

// Scrape handles POST /organizations/:id/scrape. Extracted business facts
// are written into the organization's knowledge store so the assistant can
// reference them in later turns.
func (h *Handler) Scrape(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.client.ScrapeAndExtractBusinessInfo(c.Request.Context(), req.URL)
	if err != nil {
		response.Internal(c, "scrape failed")
		return
	}
	if !result.Success {
		response.OK(c, result)
		return
	}

	segments := segmentsFromResult(result)
	if len(segments) > 0 {
		meta := map[string]any{"source_url": req.URL}
		if err := h.store.ProcessBusinessConversations(c.Request.Context(), orgID, segments, models.SegmentWebsite, meta); err != nil {
			h.logger.Warn("failed to store scraped segments",
				zap.String("organization_id", orgID.String()), zap.Error(err))
		}
	}

	response.OK(c, result)
}

// segmentsFromResult turns extracted facts into one segment per fact, with
// the raw page text as a fallback when extraction produced nothing.
func segmentsFromResult(result *Result) []string {
	if len(result.BusinessInfo) > 0 {
		keys := make([]string, 0, len(result.BusinessInfo))
		for k := range result.BusinessInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		segments := make([]string, 0, len(keys))
		for _, k := range keys {
			if v := result.BusinessInfo[k]; v != "" {
				segments = append(segments, fmt.Sprintf("%s: %s", k, v))
			}
		}
		return segments
	}
	if result.RawContent != "" {
		return chunkText(result.RawContent, 1500)
	}
	return nil
}

func chunkText(text string, size int) []string {
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
