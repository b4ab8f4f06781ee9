package rag

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/utils"
)

// fakeEmbedProvider returns deterministic pseudo-embeddings: the same text
// always maps to the same unit vector, distinct texts to near-orthogonal
// ones.
type fakeEmbedProvider struct {
	batchSizes []int
	failNext   bool
}

func (f *fakeEmbedProvider) Name() string    { return "fake" }
func (f *fakeEmbedProvider) Model() string   { return "fake-embed" }
func (f *fakeEmbedProvider) Dimensions() int { return models.EmbeddingDimensions }

func (f *fakeEmbedProvider) Embed(_ context.Context, texts []string) (*llm.EmbeddingResponse, error) {
	if f.failNext {
		f.failNext = false
		return nil, assert.AnError
	}
	f.batchSizes = append(f.batchSizes, len(texts))

	out := &llm.EmbeddingResponse{Vectors: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Vectors[i] = pseudoEmbedding(t)
		out.Usage.InputTokens += EstimateTokens(t)
	}
	return out, nil
}

func pseudoEmbedding(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, models.EmbeddingDimensions)
	var norm float64
	for i := range v {
		v[i] = float32(rng.NormFloat64())
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func newTestEmbedder() (*Embedder, *fakeEmbedProvider) {
	p := &fakeEmbedProvider{}
	e := NewEmbedder(p, nil)
	e.batchDelay = 0
	return e, p
}

func TestBatchEmbedTwoTexts(t *testing.T) {
	e, _ := newTestEmbedder()

	res, err := e.BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 2)
	assert.Len(t, res.Vectors[0], 1536)
	assert.Len(t, res.Vectors[1], 1536)
}

func TestBatchEmbedSplitsOversizedInput(t *testing.T) {
	e, p := newTestEmbedder()

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text"
	}
	res, err := e.BatchEmbed(context.Background(), texts)
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 50}, p.batchSizes)
	assert.Len(t, res.Vectors, 250)
	assert.Equal(t, 250*EstimateTokens("text"), res.Usage.InputTokens)
	assert.InDelta(t, float64(res.Usage.InputTokens)/1e6*embeddingPricePerM, res.CostUSD, 1e-12)
}

func TestBatchEmbedEmptyInput(t *testing.T) {
	e, p := newTestEmbedder()

	res, err := e.BatchEmbed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Vectors)
	assert.Empty(t, p.batchSizes)
}

func TestBatchEmbedProviderFailure(t *testing.T) {
	e, p := newTestEmbedder()
	p.failNext = true

	_, err := e.BatchEmbed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))
}

func TestEmbedSingle(t *testing.T) {
	e, _ := newTestEmbedder()

	vec, usage, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 1536)
	assert.Positive(t, usage.InputTokens)

	again, _, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, vec, again, "same text must embed identically")

	_, _, err = e.Embed(context.Background(), "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
