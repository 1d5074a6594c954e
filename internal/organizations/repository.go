package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chayo-app/backend/internal/models"
)

// Repository handles organization and team_member persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, slug, owner_id, COALESCE(website_scraping,''), COALESCE(mobile_access_code,''), created_at, updated_at`

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.OwnerID,
		&org.WebsiteScraping, &org.MobileAccessCode, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateWithOwner creates an organization and its owner team membership in
// one transaction, so an org can never exist without an owner member row.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertOrg = `INSERT INTO organizations (id, name, slug, owner_id, mobile_access_code)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertOrg, org.Name, org.Slug, org.OwnerID, org.MobileAccessCode).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return err
	}

	const insertMember = `INSERT INTO team_members (id, organization_id, user_id, role)
		VALUES (gen_random_uuid(), $1, $2, $3)`
	if _, err := tx.Exec(ctx, insertMember, org.ID, org.OwnerID, models.OrgRoleOwner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// GetBySlug returns an organization by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

// GetByOwner returns the oldest organization owned by the user, or nil if none.
func (r *Repository) GetByOwner(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	org, err := scanOrg(r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE owner_id = $1 ORDER BY created_at ASC LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return org, err
}

// GetByMembership returns the oldest organization the user is a team member
// of, or nil if none.
func (r *Repository) GetByMembership(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.owner_id, COALESCE(o.website_scraping,''), COALESCE(o.mobile_access_code,''), o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN team_members tm ON tm.organization_id = o.id
		WHERE tm.user_id = $1
		ORDER BY tm.created_at ASC LIMIT 1`
	org, err := scanOrg(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return org, err
}

// UpdateName overwrites the organization's display name.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE organizations SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	return err
}

// MarkWebsiteScrapingOffered records that the scraping offer was shown.
func (r *Repository) MarkWebsiteScrapingOffered(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE organizations SET website_scraping = $2, updated_at = NOW() WHERE id = $1`,
		id, models.ScrapingOffered)
	return err
}

// AddMember adds a user to an organization with a role (upsert on re-join).
func (r *Repository) AddMember(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	const q = `INSERT INTO team_members (id, organization_id, user_id, role)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, orgID, userID, role)
	return err
}

// IsMember reports whether the user belongs to the organization.
func (r *Repository) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM team_members WHERE organization_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&ok)
	return ok, err
}

// ListForUser returns organizations the user is a member of.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.owner_id, COALESCE(o.website_scraping,''), COALESCE(o.mobile_access_code,''), o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN team_members tm ON tm.organization_id = o.id
		WHERE tm.user_id = $1
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, org)
	}
	return list, rows.Err()
}

// Member represents an organization member with user details.
type Member struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	AddedAt  time.Time `json:"added_at"`
}

// ListMembers returns members of an organization (join team_members + users).
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	const q = `SELECT tm.id, tm.user_id, u.email, COALESCE(u.full_name, ''), tm.role, tm.created_at
		FROM team_members tm
		INNER JOIN users u ON u.id = tm.user_id
		WHERE tm.organization_id = $1
		ORDER BY tm.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FullName, &m.Role, &m.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
