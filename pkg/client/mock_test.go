package pagedex

import (
	"context"

	"github.com/pagedex-io/pagedex/internal/domain"
	healthuc "github.com/pagedex-io/pagedex/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
	statsFn  func(ctx context.Context) (domain.CollectionStats, error)
}

func (m *mockSearchUC) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	return m.searchFn(ctx, query, k)
}

func (m *mockSearchUC) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	return m.statsFn(ctx)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	buildFn func(ctx context.Context) domain.BuildReport
}

func (m *mockIndexUC) BuildIndex(ctx context.Context) domain.BuildReport {
	return m.buildFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// mockBatchEmbedder also implements BatchEmbedder and ModelLoader.
type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
	loadFn  func(ctx context.Context) error
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

func (m *mockBatchEmbedder) Load(ctx context.Context) error {
	return m.loadFn(ctx)
}
