// Package scraper fetches a business website and extracts structured
// business info from it with a plain AI call.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chayo-app/backend/pkg/ai"
)

// Result is the outcome of a scrape-and-extract run.
type Result struct {
	Success      bool              `json:"success"`
	BusinessInfo map[string]string `json:"business_info,omitempty"`
	RawContent   string            `json:"raw_content,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Client scrapes websites and extracts business info.
type Client struct {
	http     *http.Client
	ai       ai.CompletionClient
	model    string
	maxBytes int
	logger   *zap.Logger
}

// NewClient creates a scraper client.
func NewClient(aiClient ai.CompletionClient, model string, maxBytes int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 200000
	}
	return &Client{
		http:     &http.Client{Timeout: 20 * time.Second},
		ai:       aiClient,
		model:    model,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

var (
	tagScrubber    = regexp.MustCompile(`(?s)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagStripper    = regexp.MustCompile(`<[^>]+>`)
	spaceCollapser = regexp.MustCompile(`\s+`)
)

// ScrapeAndExtractBusinessInfo fetches the URL, strips markup and asks the
// AI to extract a flat map of business facts. Extraction failures still
// return the raw text so nothing scraped is lost.
func (c *Client) ScrapeAndExtractBusinessInfo(ctx context.Context, url string) (*Result, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Result{Error: "invalid url"}, nil
	}
	req.Header.Set("User-Agent", "ChayoBot/1.0 (+https://chayo.ai)")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Result{Error: fmt.Sprintf("fetch failed: %s", err)}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Result{Error: fmt.Sprintf("fetch status: %d", resp.StatusCode)}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBytes)))
	if err != nil {
		return &Result{Error: fmt.Sprintf("read failed: %s", err)}, nil
	}
	text := StripMarkup(string(body))
	if text == "" {
		return &Result{Error: "page had no readable text"}, nil
	}

	info, err := c.extract(ctx, text)
	if err != nil {
		c.logger.Warn("business info extraction failed", zap.String("url", url), zap.Error(err))
		return &Result{Success: true, RawContent: text}, nil
	}
	return &Result{Success: true, BusinessInfo: info, RawContent: text}, nil
}

func (c *Client) extract(ctx context.Context, text string) (map[string]string, error) {
	const limit = 12000
	if len(text) > limit {
		text = text[:limit]
	}
	system := "Extract business facts from website text. Reply with a flat JSON object of snake_case " +
		"keys (business_name, business_type, services, location, hours, phone, email, ...) to string values. " +
		"Include only facts present in the text. Reply with JSON only."
	reply, err := c.ai.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: text},
	}, ai.CallOptions{Model: c.model, Temperature: 0, MaxTokens: 800})
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	var info map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &info); err != nil {
		return nil, fmt.Errorf("parse extraction: %w", err)
	}
	return info, nil
}

// StripMarkup reduces an HTML page to whitespace-normalized text.
func StripMarkup(html string) string {
	text := tagScrubber.ReplaceAllString(html, " ")
	text = tagStripper.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceCollapser.ReplaceAllString(text, " "))
}
