package rag

import (
	"strconv"
	"strings"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	// DefaultMaxTokens is the per-chunk accumulation budget.
	DefaultMaxTokens = 512
	// DefaultOverlapTokens is how much trailing text seeds the next chunk so
	// semantic continuity survives the boundary.
	DefaultOverlapTokens = 50

	charsPerToken = 4
)

// Chunker splits documents on sentence boundaries into budget-bounded chunks
// with a trailing overlap carried into each successor.
type Chunker struct {
	MaxTokens     int
	OverlapTokens int
}

func NewChunker() *Chunker {
	return &Chunker{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

// EstimateTokens is the ~4 chars/token heuristic attached to chunk metadata.
func EstimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// ChunkDocument splits doc into ordered chunks. Sentences accumulate until
// the budget is reached, the chunk is emitted, and the next chunk is seeded
// with the previous chunk's trailing overlap. Each chunk carries its ordinal
// index and the document metadata merged with chunk-local fields.
func (c *Chunker) ChunkDocument(doc models.Document) ([]models.Chunk, error) {
	const op = "Chunker.ChunkDocument"

	if doc.ID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "document content is empty", nil)
	}

	maxSize := c.MaxTokens
	if maxSize <= 0 {
		maxSize = DefaultMaxTokens
	}
	overlap := c.OverlapTokens
	if overlap < 0 {
		overlap = 0
	}

	sentences := splitSentences(doc.Content)

	var chunks []models.Chunk
	var current strings.Builder
	fresh := false // true once the pending chunk holds more than its overlap seed

	emit := func() {
		content := strings.TrimSpace(current.String())
		if content == "" || !fresh {
			return
		}
		chunks = append(chunks, c.newChunk(doc, len(chunks), content))
		current.Reset()
		fresh = false
		if overlap > 0 {
			current.WriteString(trailingOverlap(content, overlap))
			current.WriteString(" ")
		}
	}

	for _, sentence := range sentences {
		// Sentences are never split: a chunk closes once appending a
		// sentence reaches the budget, so an oversized sentence travels
		// whole.
		current.WriteString(sentence)
		current.WriteString(" ")
		fresh = true
		if current.Len() >= maxSize {
			emit()
		}
	}
	emit()

	return chunks, nil
}

func (c *Chunker) newChunk(doc models.Document, index int, content string) models.Chunk {
	md := map[string]string{}
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md["chunk_index"] = strconv.Itoa(index)
	md["token_estimate"] = strconv.Itoa(EstimateTokens(content))

	return models.Chunk{
		DocumentID: doc.ID,
		Index:      index,
		Content:    content,
		Metadata:   md,
	}
}

// splitSentences breaks text after terminal punctuation or newlines. Crude,
// but chunk boundaries only need to be approximately sentence-shaped.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				flush()
			}
		}
	}
	flush()
	return out
}

// trailingOverlap returns up to n trailing units of content, snapped forward
// to a word boundary so the seed never starts mid-word.
func trailingOverlap(content string, n int) string {
	if len(content) <= n {
		return content
	}
	tail := content[len(content)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return tail
}
