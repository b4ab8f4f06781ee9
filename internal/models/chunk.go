package models

// Document is a raw source text handed to the indexing pipeline.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a bounded slice of a document. It is owned by its parent document
// and deleted en masse when the document is deleted or reindexed.
type Chunk struct {
	DocumentID string            `json:"document_id"`
	Index      int               `json:"index"` // ordinal, unique per document
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"` // doc metadata + chunk index + token estimate
}
