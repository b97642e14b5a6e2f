package indexer

import (
	"context"

	"github.com/pagedex-io/pagedex/internal/domain"
	"github.com/pagedex-io/pagedex/internal/extract"
)

// Extractor pulls per-page plain text out of one document file.
type Extractor interface {
	FromFile(ctx context.Context, path string) ([]extract.Page, error)
}

// Splitter cuts page text into overlapping chunks.
type Splitter interface {
	Split(text string) []string
}

// Embedder encodes chunk texts into vectors in one logical batch.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ModelLoader verifies the embedding backend is ready to serve.
type ModelLoader interface {
	Load(ctx context.Context) error
}

// Corpus is the replace-only storage contract for built chunks.
type Corpus interface {
	EnsureIndex(ctx context.Context) error
	ReplaceAll(ctx context.Context, chunks []domain.Chunk) (previous int, err error)
	Count(ctx context.Context) (int, error)
}
