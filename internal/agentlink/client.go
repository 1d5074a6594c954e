// Package agentlink talks to the external agent hub that hosts public
// chat links for onboarded businesses.
package agentlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type answeredCounter interface {
	CountAnswered(ctx context.Context, orgID uuid.UUID) (int, error)
}

// Client creates agent chat links once an organization has collected
// enough answered fields. All failures are logged by callers, never
// surfaced to users.
type Client struct {
	baseURL   string
	threshold int
	ledger    answeredCounter
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates an agent-link client. An empty baseURL disables it.
func NewClient(baseURL string, threshold int, ledger answeredCounter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		threshold: threshold,
		ledger:    ledger,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// MaybeCreateAgentChatLink creates a chat link for the organization when
// its answered-field count meets the threshold. No-op when disabled or
// below threshold.
func (c *Client) MaybeCreateAgentChatLink(ctx context.Context, orgID uuid.UUID, slug string) error {
	if c.baseURL == "" {
		return nil
	}
	count, err := c.ledger.CountAnswered(ctx, orgID)
	if err != nil {
		return fmt.Errorf("count answered fields: %w", err)
	}
	if count < c.threshold {
		c.logger.Debug("agent link threshold not met",
			zap.String("organization_id", orgID.String()),
			zap.Int("answered", count), zap.Int("threshold", c.threshold))
		return nil
	}

	body, _ := json.Marshal(map[string]string{"organization_id": orgID.String(), "slug": slug})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agent-links", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create agent link: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("create agent link: status %d", resp.StatusCode)
	}
	c.logger.Info("agent chat link created",
		zap.String("organization_id", orgID.String()), zap.String("slug", slug))
	return nil
}
