package organizations

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chayo-app/backend/internal/models"
)

// Resolver finds the caller's organization or creates one on first chat.
// Lookup order: owned org, then team membership, then create-with-owner.
// The lookups run before any create, so an existing association is never
// shadowed by a duplicate org.
type Resolver struct {
	repo   *Repository
	logger *zap.Logger
}

// NewResolver creates an organization resolver.
func NewResolver(repo *Repository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{repo: repo, logger: logger}
}

// ResolveOrCreate returns the user's organization, creating one when the
// user owns none and belongs to none.
func (r *Resolver) ResolveOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Organization, error) {
	org, err := r.repo.GetByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}
	if org != nil {
		return org, nil
	}

	org, err = r.repo.GetByMembership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup: %w", err)
	}
	if org != nil {
		return org, nil
	}

	name := defaultOrgName(email)
	org = &models.Organization{
		Name:             name,
		Slug:             Slugify(name) + "-" + randomSuffix(6),
		OwnerID:          userID,
		MobileAccessCode: randomDigits(6),
	}
	if err := r.repo.CreateWithOwner(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	r.logger.Info("organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug))
	return org, nil
}

// UpdateName overwrites the organization's display name.
func (r *Resolver) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.repo.UpdateName(ctx, id, name)
}

// MarkWebsiteScrapingOffered records that the scraping offer was shown.
func (r *Resolver) MarkWebsiteScrapingOffered(ctx context.Context, id uuid.UUID) error {
	return r.repo.MarkWebsiteScrapingOffered(ctx, id)
}

func defaultOrgName(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	if local == "" {
		return "My Business"
	}
	return local + "'s Business"
}

// Slugify lowercases a name and replaces runs of non-alphanumerics with dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			out[i] = 'x'
			continue
		}
		out[i] = suffixAlphabet[idx.Int64()]
	}
	return string(out)
}

func randomDigits(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			out[i] = '0'
			continue
		}
		out[i] = byte('0' + idx.Int64())
	}
	return string(out)
}
