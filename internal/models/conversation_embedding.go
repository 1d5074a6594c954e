package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Segment types stored in the knowledge base.
const (
	SegmentConversation = "conversation"
	SegmentWebsite      = "website"
	SegmentDocument     = "document"
)

// ConversationEmbedding is one append-only memory record: a text segment
// with its embedding vector, scoped to an organization.
type ConversationEmbedding struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Text           string          `json:"text"`
	SegmentType    string          `json:"segment_type"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	Embedding      pgvector.Vector `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}
