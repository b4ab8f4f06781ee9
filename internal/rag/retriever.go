package rag

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	pgrepo "github.com/hirelane/aicore/internal/repositories/postgres"
	"github.com/hirelane/aicore/internal/storage"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	// DefaultMinSimilarity drops weak matches before they reach a prompt.
	DefaultMinSimilarity = 0.7

	// searchSLA is advisory end-to-end; breach logs, never aborts.
	searchSLA = 500 * time.Millisecond
)

// Retriever is the pipeline front door: chunk → embed → store on the write
// path, embed → similarity search → threshold on the read path.
type Retriever struct {
	chunker  *Chunker
	embedder *Embedder
	store    pgrepo.VectorRepository
	archive  storage.Archiver // optional; nil disables raw-document archiving
	log      *logrus.Entry

	MinSimilarity float64
}

func NewRetriever(chunker *Chunker, embedder *Embedder, store pgrepo.VectorRepository, archive storage.Archiver, log *logrus.Logger) *Retriever {
	if log == nil {
		log = logrus.New()
	}
	return &Retriever{
		chunker:       chunker,
		embedder:      embedder,
		store:         store,
		archive:       archive,
		log:           log.WithField("component", "retriever"),
		MinSimilarity: DefaultMinSimilarity,
	}
}

// SearchOptions tune one query. Zero values fall back to defaults; a nil
// MinSimilarity uses the retriever-wide threshold.
type SearchOptions struct {
	TopK          int
	MinSimilarity *float64
	Filter        map[string]string
}

// Search embeds the query, runs the similarity search, and drops results
// below the similarity floor.
func (r *Retriever) Search(ctx context.Context, query string, opts SearchOptions) ([]models.SearchResult, error) {
	const op = "Retriever.Search"

	if query == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}

	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > searchSLA {
			r.log.WithFields(logrus.Fields{
				"elapsed_ms": elapsed.Milliseconds(),
				"sla_ms":     searchSLA.Milliseconds(),
			}).Warn("retrieval exceeded advisory SLA")
		}
	}()

	vec, _, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	hits, err := r.store.Search(ctx, vec, topK, opts.Filter)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "vector search failed", err)
	}

	floor := r.MinSimilarity
	if opts.MinSimilarity != nil {
		floor = *opts.MinSimilarity
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Similarity >= floor {
			out = append(out, h)
		}
	}
	return out, nil
}

// IndexResult reports what one Index call wrote and what it cost.
type IndexResult struct {
	Documents int     `json:"documents"`
	Chunks    int     `json:"chunks"`
	Tokens    int     `json:"tokens"`
	CostUSD   float64 `json:"cost_usd"`
}

// Index chunks the documents, batch-embeds every chunk, and bulk-inserts the
// entries. Raw documents are archived best-effort when an archive is wired.
func (r *Retriever) Index(ctx context.Context, docs []models.Document) (*IndexResult, error) {
	const op = "Retriever.Index"

	if len(docs) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "at least one document is required", nil)
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		cs, err := r.chunker.ChunkDocument(doc)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, cs...)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embedded, err := r.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, err
	}

	entries, err := buildEntries(chunks, embedded.Vectors)
	if err != nil {
		return nil, err
	}
	if err := r.store.InsertBatch(ctx, entries); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist vector entries", err)
	}

	if r.archive != nil {
		for _, doc := range docs {
			if _, err := r.archive.Archive(ctx, doc); err != nil {
				r.log.WithError(err).WithField("document_id", doc.ID).
					Warn("raw document archive failed")
			}
		}
	}

	return &IndexResult{
		Documents: len(docs),
		Chunks:    len(chunks),
		Tokens:    embedded.Usage.InputTokens,
		CostUSD:   embedded.CostUSD,
	}, nil
}

// DeleteDocument removes every entry keyed under the document id.
func (r *Retriever) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	const op = "Retriever.DeleteDocument"

	if documentID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	n, err := r.store.DeleteByDocument(ctx, documentID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to delete vector entries", err)
	}
	return n, nil
}

// Reindex deletes then re-indexes each document. Not atomic: a crash between
// the delete and the insert leaves that document's old chunks gone with new
// chunks partially written. At-least-once, converges on retry.
func (r *Retriever) Reindex(ctx context.Context, docs []models.Document) (*IndexResult, error) {
	const op = "Retriever.Reindex"

	if len(docs) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "at least one document is required", nil)
	}

	total := &IndexResult{}
	for _, doc := range docs {
		if _, err := r.DeleteDocument(ctx, doc.ID); err != nil {
			return total, err
		}
		res, err := r.Index(ctx, []models.Document{doc})
		if err != nil {
			return total, err
		}
		total.Documents += res.Documents
		total.Chunks += res.Chunks
		total.Tokens += res.Tokens
		total.CostUSD += res.CostUSD
	}
	return total, nil
}

// buildEntries zips chunks with their embeddings. Strict positional 1:1
// correspondence; a length mismatch is a hard error, never truncated.
func buildEntries(chunks []models.Chunk, vectors [][]float32) ([]models.VectorEntry, error) {
	const op = "Retriever.Index"

	if len(chunks) != len(vectors) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chunk and embedding counts do not match", nil)
	}

	entries := make([]models.VectorEntry, len(chunks))
	for i, c := range chunks {
		md, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to encode chunk metadata", err)
		}
		entries[i] = models.VectorEntry{
			ID:         models.VectorEntryID(c.DocumentID, c.Index),
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(vectors[i]),
			Metadata:   md,
		}
	}
	return entries, nil
}
