package search

import (
	"context"
	"fmt"

	"github.com/pagedex-io/pagedex/internal/domain"
)

// sourceSampleSize bounds the source listing in stats. Count stays exact
// however large the collection grows.
const sourceSampleSize = 100

// Service answers semantic queries over the chunk corpus.
type Service struct {
	repo           Repository
	embed          Embedder
	collectionName string
	modelName      string
}

// New creates a search service.
func New(repo Repository, embed Embedder, collectionName, modelName string) *Service {
	return &Service{
		repo:           repo,
		embed:          embed,
		collectionName: collectionName,
		modelName:      modelName,
	}
}

// Search embeds the query and returns up to k nearest chunks ordered by
// ascending distance. An empty collection yields no results, not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := s.repo.SearchKNN(ctx, embResult.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return results, nil
}

// CollectionStats reports the exact chunk count and a sampled source list.
func (s *Service) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("count chunks: %w", err)
	}

	sources, err := s.repo.Sources(ctx, sourceSampleSize)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("list sources: %w", err)
	}

	return domain.CollectionStats{
		TotalChunks:    count,
		CollectionName: s.collectionName,
		EmbeddingModel: s.modelName,
		Sources:        sources,
	}, nil
}
