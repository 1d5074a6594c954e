// Package setup tracks per-organization onboarding completion.
package setup

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chayo-app/backend/internal/models"
)

// Repository handles setup_completion persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a setup repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const completionColumns = `id, organization_id, setup_status, completed_at, COALESCE(completion_data, '{}'::jsonb), created_at, updated_at`

func scanCompletion(row pgx.Row) (*models.SetupCompletion, error) {
	var s models.SetupCompletion
	err := row.Scan(&s.ID, &s.OrganizationID, &s.SetupStatus, &s.CompletedAt,
		&s.CompletionData, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreate returns the organization's setup row, lazily creating it in
// in_progress state the first time progress is queried. Idempotent under
// concurrent callers via the unique organization_id constraint.
func (r *Repository) GetOrCreate(ctx context.Context, orgID uuid.UUID) (*models.SetupCompletion, error) {
	const insert = `INSERT INTO setup_completion (id, organization_id, setup_status)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (organization_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, orgID, models.SetupInProgress); err != nil {
		return nil, err
	}
	return scanCompletion(r.pool.QueryRow(ctx,
		`SELECT `+completionColumns+` FROM setup_completion WHERE organization_id = $1`, orgID))
}

// MarkCompleted transitions the row to completed. The status guard makes
// the call idempotent and keeps the transition monotonic.
func (r *Repository) MarkCompleted(ctx context.Context, orgID uuid.UUID) error {
	const q = `UPDATE setup_completion
		SET setup_status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE organization_id = $1 AND setup_status <> $2`
	_, err := r.pool.Exec(ctx, q, orgID, models.SetupCompleted)
	return err
}

// MergeCompletionData merges keys into the completion_data JSON bag.
func (r *Repository) MergeCompletionData(ctx context.Context, orgID uuid.UUID, data map[string]any) error {
	const q = `UPDATE setup_completion
		SET completion_data = COALESCE(completion_data, '{}'::jsonb) || $2::jsonb, updated_at = NOW()
		WHERE organization_id = $1`
	_, err := r.pool.Exec(ctx, q, orgID, data)
	return err
}

// Reset reverts the row to in_progress. Administrative operation only.
func (r *Repository) Reset(ctx context.Context, orgID uuid.UUID) error {
	const q = `UPDATE setup_completion
		SET setup_status = $2, completed_at = NULL, completion_data = '{}'::jsonb, updated_at = NOW()
		WHERE organization_id = $1`
	_, err := r.pool.Exec(ctx, q, orgID, models.SetupInProgress)
	return err
}
