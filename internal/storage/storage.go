package storage

import (
	"context"

	"github.com/hirelane/aicore/internal/models"
)

// Archiver keeps a copy of raw source documents outside the vector store so a
// reindex can always be replayed from the original text. Writes are
// best-effort from the caller's point of view.
type Archiver interface {
	Archive(ctx context.Context, doc models.Document) (storedPath string, err error)
}
