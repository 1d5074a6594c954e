// Package questions is the persistent ledger of onboarding/business
// questions asked of an organization.
package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chayo-app/backend/internal/models"
)

// Repository handles business info field persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fieldColumns = `id, organization_id, field_name, question_template, field_type,
	COALESCE(multiple_choices, '{}'), allow_multiple, is_answered,
	COALESCE(field_value, ''), COALESCE(confidence, 0), created_at, updated_at`

func scanField(row pgx.Row) (*models.BusinessInfoField, error) {
	var f models.BusinessInfoField
	err := row.Scan(&f.ID, &f.OrganizationID, &f.FieldName, &f.QuestionTemplate, &f.FieldType,
		&f.MultipleChoices, &f.AllowMultiple, &f.IsAnswered,
		&f.FieldValue, &f.Confidence, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertIfNew inserts a question unless an identical unanswered question
// already exists for the organization. Returns false when skipped, which
// keeps concurrent turns from duplicating the same pending question.
func (r *Repository) InsertIfNew(ctx context.Context, f *models.BusinessInfoField) (bool, error) {
	const q = `INSERT INTO business_info_fields
		(id, organization_id, field_name, question_template, field_type, multiple_choices, allow_multiple, is_answered)
		SELECT gen_random_uuid(), $1, $2, $3, $4, $5, $6, FALSE
		WHERE NOT EXISTS (
			SELECT 1 FROM business_info_fields
			WHERE organization_id = $1 AND question_template = $3 AND is_answered = FALSE
		)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		f.OrganizationID, f.FieldName, f.QuestionTemplate, f.FieldType, f.MultipleChoices, f.AllowMultiple).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OldestUnanswered returns the FIFO-next pending question, or nil if none.
func (r *Repository) OldestUnanswered(ctx context.Context, orgID uuid.UUID) (*models.BusinessInfoField, error) {
	const q = `SELECT ` + fieldColumns + ` FROM business_info_fields
		WHERE organization_id = $1 AND is_answered = FALSE
		ORDER BY created_at ASC LIMIT 1`
	f, err := scanField(r.pool.QueryRow(ctx, q, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// ListUnanswered returns pending questions in FIFO order.
func (r *Repository) ListUnanswered(ctx context.Context, orgID uuid.UUID) ([]*models.BusinessInfoField, error) {
	const q = `SELECT ` + fieldColumns + ` FROM business_info_fields
		WHERE organization_id = $1 AND is_answered = FALSE
		ORDER BY created_at ASC`
	return r.list(ctx, q, orgID)
}

// ListAnswered returns answered questions in the order they were asked.
func (r *Repository) ListAnswered(ctx context.Context, orgID uuid.UUID) ([]*models.BusinessInfoField, error) {
	const q = `SELECT ` + fieldColumns + ` FROM business_info_fields
		WHERE organization_id = $1 AND is_answered = TRUE
		ORDER BY created_at ASC`
	return r.list(ctx, q, orgID)
}

func (r *Repository) list(ctx context.Context, q string, orgID uuid.UUID) ([]*models.BusinessInfoField, error) {
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.BusinessInfoField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// MarkAnswered fills the answer on an unanswered question. The guard on
// is_answered keeps answered rows immutable.
func (r *Repository) MarkAnswered(ctx context.Context, orgID uuid.UUID, fieldName, value string, confidence float64) error {
	const q = `UPDATE business_info_fields
		SET is_answered = TRUE, field_value = $3, confidence = $4, updated_at = NOW()
		WHERE organization_id = $1 AND field_name = $2 AND is_answered = FALSE`
	_, err := r.pool.Exec(ctx, q, orgID, fieldName, value, confidence)
	return err
}

// CountAnswered returns the number of answered questions for the org.
func (r *Repository) CountAnswered(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM business_info_fields WHERE organization_id = $1 AND is_answered = TRUE`, orgID).
		Scan(&n)
	return n, err
}

// ResetAnswers zeroes the answered state of every question for the org.
// Used only by the administrative setup reset.
func (r *Repository) ResetAnswers(ctx context.Context, orgID uuid.UUID) error {
	const q = `UPDATE business_info_fields
		SET is_answered = FALSE, field_value = NULL, confidence = NULL, updated_at = NOW()
		WHERE organization_id = $1`
	_, err := r.pool.Exec(ctx, q, orgID)
	return err
}
