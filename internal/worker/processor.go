// Package worker consumes background jobs: agent-link creation and vibe
// card regeneration.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
	"github.com/chayo-app/backend/pkg/queue"
)

type organizationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type agentLinker interface {
	MaybeCreateAgentChatLink(ctx context.Context, orgID uuid.UUID, slug string) error
}

type cardGenerator interface {
	Generate(ctx context.Context, org *models.Organization) (*models.VibeCard, error)
}

// Processor executes background jobs pulled from the queue.
type Processor struct {
	orgs   organizationGetter
	links  agentLinker
	cards  cardGenerator
	queue  *queue.Queue
	logger *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(orgs organizationGetter, links agentLinker, cards cardGenerator, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{orgs: orgs, links: links, cards: cards, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAgentLink:
		var payload queue.AgentLinkPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.links.MaybeCreateAgentChatLink(ctx, payload.OrganizationID, payload.Slug)

	case queue.JobTypeVibeCardRegenerate:
		var payload queue.VibeCardPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		org, err := p.orgs.GetByID(ctx, payload.OrganizationID)
		if err != nil {
			return fmt.Errorf("organization not found: %s", payload.OrganizationID)
		}
		_, err = p.cards.Generate(ctx, org)
		return err

	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// Run consumes jobs until ctx is done. Failed jobs are retried with
// backoff and eventually parked in the DLQ.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("job failed",
				zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			continue
		}
		p.logger.Info("job done", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	}
}
