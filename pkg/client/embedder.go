package pagedex

import (
	"context"
	"fmt"

	"github.com/pagedex-io/pagedex/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
// Optional: if the provided Embedder also implements BatchEmbedder,
// index builds will use it for significantly better throughput.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// ModelLoader verifies the embedding backend is reachable. Optional: if the
// provided Embedder also implements ModelLoader, BuildIndex probes it before
// encoding and Health reports the embedding component.
type ModelLoader interface {
	Load(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter bridges a public Embedder to the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embedding,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := a.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   res.Embeddings,
			PromptTokens: res.PromptTokens,
			TotalTokens:  res.TotalTokens,
		}, nil
	}
	return domain.BatchFallback(ctx, a, texts)
}

// loadProber matches the internal readiness probe contracts.
type loadProber interface {
	Load(ctx context.Context) error
}

// loaderFor returns the readiness probe of e, or a no-op when the embedder
// exposes none. Без пробы стадия загрузки модели всегда проходит.
func loaderFor(e Embedder) loadProber {
	if ml, ok := e.(ModelLoader); ok {
		return ml
	}
	return noopLoader{}
}

type noopLoader struct{}

func (noopLoader) Load(context.Context) error { return nil }
