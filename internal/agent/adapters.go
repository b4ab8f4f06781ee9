package agent

import (
	"context"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/rag"
)

// RetrieverKnowledge adapts the RAG retriever's option struct to the flat
// KnowledgeSearch signature agents use.
type RetrieverKnowledge struct {
	Retriever *rag.Retriever
}

func (r RetrieverKnowledge) SearchKnowledge(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	return r.Retriever.Search(ctx, query, rag.SearchOptions{TopK: topK})
}
