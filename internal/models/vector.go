package models

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// EmbeddingDimensions is fixed by the embedding model
// (text-embedding-3-small).
const EmbeddingDimensions = 1536

// VectorEntry is one indexed chunk with its embedding. The primary key is
// derived from documentID and chunk index so that a document's entries can be
// removed as a unit.
type VectorEntry struct {
	ID         string          `gorm:"column:id;type:text;primaryKey" json:"id"`
	DocumentID string          `gorm:"column:document_id;type:text;index" json:"document_id"`
	ChunkIndex int             `gorm:"column:chunk_index" json:"chunk_index"`
	Content    string          `gorm:"column:content;type:text" json:"content"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`
	Metadata   datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (VectorEntry) TableName() string { return "vector_entries" }

// VectorEntryID derives the deterministic key for a (document, chunk) pair.
func VectorEntryID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", documentID, chunkIndex)
}

// SearchResult is one ranked hit from a similarity search, similarity in [0,1].
type SearchResult struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}
