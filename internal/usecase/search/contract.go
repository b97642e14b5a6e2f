package search

import (
	"context"

	"github.com/pagedex-io/pagedex/internal/domain"
)

// Repository is the read side of the chunk corpus.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Sources(ctx context.Context, sampleSize int) ([]string, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
