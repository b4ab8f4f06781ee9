package rag

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	// DefaultBatchSize caps one provider call; oversized input is split into
	// sub-batches.
	DefaultBatchSize = 100
	// DefaultBatchDelay is the fixed pause between sub-batches, a cooperative
	// client-side limiter for provider per-minute caps. It does not
	// coordinate across processes.
	DefaultBatchDelay = 200 * time.Millisecond

	// embeddingPricePerM is USD per million input tokens
	// (text-embedding-3-small).
	embeddingPricePerM = 0.02
)

// Embedder wraps an embedding provider with batching and cost accounting.
type Embedder struct {
	provider   llm.EmbeddingProvider
	batchSize  int
	batchDelay time.Duration
	log        *logrus.Entry
}

func NewEmbedder(provider llm.EmbeddingProvider, log *logrus.Logger) *Embedder {
	if log == nil {
		log = logrus.New()
	}
	return &Embedder{
		provider:   provider,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		log:        log.WithField("component", "embedder"),
	}
}

// BatchResult accumulates vectors, token usage, and cost across sub-batches.
type BatchResult struct {
	Vectors [][]float32
	Usage   llm.Usage
	CostUSD float64
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, llm.Usage, error) {
	const op = "Embedder.Embed"

	if text == "" {
		return nil, llm.Usage{}, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}

	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, llm.Usage{}, err
	}
	return res.Vectors[0], res.Usage, nil
}

// BatchEmbed embeds texts, auto-splitting into sub-batches of at most the
// batch size with a fixed delay between calls.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (*BatchResult, error) {
	const op = "Embedder.BatchEmbed"

	if len(texts) == 0 {
		return &BatchResult{}, nil
	}

	size := e.batchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	out := &BatchResult{Vectors: make([][]float32, 0, len(texts))}
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		if start > 0 && e.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, utils.E(utils.CodeTimeout, op, "canceled between sub-batches", ctx.Err())
			case <-time.After(e.batchDelay):
			}
		}

		resp, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, utils.E(utils.CodeUpstream, op, "embedding call failed", err)
		}
		if len(resp.Vectors) != end-start {
			return nil, utils.E(utils.CodeUpstream, op, "provider returned wrong vector count", nil)
		}
		for _, v := range resp.Vectors {
			if len(v) != e.provider.Dimensions() {
				return nil, utils.E(utils.CodeUpstream, op, "provider returned wrong vector dimensionality", nil)
			}
		}

		out.Vectors = append(out.Vectors, resp.Vectors...)
		out.Usage.Add(resp.Usage)
	}

	out.CostUSD = float64(out.Usage.InputTokens) / 1e6 * embeddingPricePerM
	e.log.WithFields(logrus.Fields{
		"texts":    len(texts),
		"tokens":   out.Usage.InputTokens,
		"cost_usd": out.CostUSD,
	}).Debug("batch embed complete")
	return out, nil
}

// Dimensions reports the provider's fixed vector width.
func (e *Embedder) Dimensions() int { return e.provider.Dimensions() }

// Provider reports the backing model for ledger records.
func (e *Embedder) Provider() (name, model string) {
	return e.provider.Name(), e.provider.Model()
}
