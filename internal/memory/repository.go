// Package memory is the vector-embedding-backed knowledge store for
// business conversations.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/chayo-app/backend/internal/models"
)

// Match is one similarity-search hit. Distance is cosine distance
// (0 = identical); Similarity = 1 - Distance.
type Match struct {
	ID          uuid.UUID      `json:"id"`
	Text        string         `json:"text"`
	SegmentType string         `json:"segment_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Distance    float64        `json:"distance"`
	Similarity  float64        `json:"similarity"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Repository handles conversation embedding persistence and vector search.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memory repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BulkInsert appends embedding records in one batch.
func (r *Repository) BulkInsert(ctx context.Context, records []*models.ConversationEmbedding) error {
	if len(records) == 0 {
		return nil
	}
	const q = `INSERT INTO conversation_embeddings
		(id, organization_id, text_segment, segment_type, metadata, embedding)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(q, rec.OrganizationID, rec.Text, rec.SegmentType, rec.Metadata, rec.Embedding)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// SearchByEmbedding returns records within maxDistance of the query vector,
// scoped to one organization and ranked nearest-first.
func (r *Repository) SearchByEmbedding(ctx context.Context, orgID uuid.UUID, query pgvector.Vector, maxDistance float64, limit int) ([]Match, error) {
	const q = `SELECT id, text_segment, segment_type, COALESCE(metadata, '{}'::jsonb), embedding <=> $2 AS distance, created_at
		FROM conversation_embeddings
		WHERE organization_id = $1 AND embedding <=> $2 <= $3
		ORDER BY embedding <=> $2 ASC
		LIMIT $4`
	rows, err := r.pool.Query(ctx, q, orgID, query, maxDistance, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.SegmentType, &m.Metadata, &m.Distance, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Similarity = 1 - m.Distance
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// CountByOrganization returns the number of stored segments for an org.
func (r *Repository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation_embeddings WHERE organization_id = $1`, orgID).Scan(&n)
	return n, err
}
