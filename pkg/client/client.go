package pagedex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagedex-io/pagedex/internal/chunker"
	"github.com/pagedex-io/pagedex/internal/db"
	dbRedis "github.com/pagedex-io/pagedex/internal/db/redis"
	"github.com/pagedex-io/pagedex/internal/domain"
	"github.com/pagedex-io/pagedex/internal/extract"
	corpusrepo "github.com/pagedex-io/pagedex/internal/repository/corpus"
	openaiEmb "github.com/pagedex-io/pagedex/internal/transport/openai"
	healthuc "github.com/pagedex-io/pagedex/internal/usecase/health"
	indexeruc "github.com/pagedex-io/pagedex/internal/usecase/indexer"
	searchuc "github.com/pagedex-io/pagedex/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultK                = 5
)

// Внутренние интерфейсы для подмены в тестах.
type searchUseCase interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
	CollectionStats(ctx context.Context) (domain.CollectionStats, error)
}

type indexUseCase interface {
	BuildIndex(ctx context.Context) domain.BuildReport
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// fullEmbedder is the complete vectorization surface the engine wires.
type fullEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Client embeds the pagedex engine in-process: it talks to the store and the
// embedding backend directly, without a pagedex server in between.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	indexSvc  indexUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a pagedex Client, connects to the database and makes sure the
// search index exists. The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	cfg.applyDefaults()

	if len(cfg.addrs) == 0 {
		return nil, errors.New("pagedex: database address required (use WithRedis)")
	}
	if cfg.embedder == nil && cfg.embBaseURL == "" {
		return nil, errors.New("pagedex: embedding provider required (use WithOpenAIEmbedding or WithEmbedder)")
	}
	if cfg.overlap >= cfg.maxChars {
		return nil, fmt.Errorf(
			"pagedex: chunk overlap %d must be smaller than max chars %d",
			cfg.overlap, cfg.maxChars,
		)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("pagedex: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("pagedex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal layers log through the service entrypoint; the embedded client
	// reports through its observer instead.
	nop := zap.NewNop()

	var (
		emb    fullEmbedder
		loader loadProber
		model  string
	)
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
		loader = loaderFor(cfg.embedder)
		model = "custom"
	} else {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.embAPIKey,
			BaseURL:    cfg.embBaseURL,
			Model:      cfg.embModel,
			Dimensions: cfg.embDimensions,
			Logger:     nop,
		})
		emb = base
		loader = base
		model = cfg.embModel
	}

	var docEmb fullEmbedder = emb
	var queryEmb domain.Embedder = emb
	if cfg.passagePrefix != "" {
		docEmb = domain.NewPrefixEmbedder(emb, cfg.passagePrefix)
	}
	if cfg.queryPrefix != "" {
		queryEmb = domain.NewPrefixEmbedder(emb, cfg.queryPrefix)
	}

	repo := corpusrepo.New(store, cfg.keyPrefix, cfg.collection, corpusrepo.IndexParams{
		Dim:         cfg.embDimensions,
		Metric:      cfg.distanceMetric,
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("pagedex: ensure index: %w", err)
	}

	indexSvc := indexeruc.New(
		extract.NewPDF(),
		chunker.NewSplitter(cfg.maxChars, cfg.overlap),
		docEmb,
		loader,
		repo,
		indexeruc.BuildConfig{
			DocumentDir:    cfg.documentDir,
			EmbeddingModel: model,
			CollectionName: cfg.collection,
		},
		nop,
	)
	searchSvc := searchuc.New(repo, queryEmb, cfg.collection, model)

	// Health probes the embedding backend only when it exposes Load.
	var checker healthuc.ModelChecker
	if _, noop := loader.(noopLoader); !noop {
		checker = loader
	}
	healthSvc := healthuc.New(store, checker)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		indexSvc:  indexSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search returns the k nearest chunks for the query text, closest first.
// k <= 0 selects the default of 5.
func (c *Client) Search(ctx context.Context, query string, k int) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	if query == "" {
		return nil, errors.New("pagedex: query is required")
	}
	if k <= 0 {
		k = defaultK
	}

	hits, err := c.searchSvc.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("pagedex: search: %w", err)
	}
	return searchResultsFrom(hits), nil
}

// Stats returns statistics about the indexed collection.
func (c *Client) Stats(ctx context.Context) (_ CollectionStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	s, err := c.searchSvc.CollectionStats(ctx)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("pagedex: stats: %w", err)
	}
	return statsFrom(s), nil
}

// BuildIndex rebuilds the chunk collection from the document directory.
// Failures are carried inside the report, never returned as a Go error.
func (c *Client) BuildIndex(ctx context.Context) BuildReport {
	start := time.Now()
	report := c.indexSvc.BuildIndex(ctx)

	var err error
	if !report.Success {
		err = errors.New(report.Error)
	}
	c.obs.observe("build_index", start, err)

	return buildReportFrom(report)
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
