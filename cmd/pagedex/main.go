package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pagedex-io/pagedex/internal/chunker"
	"github.com/pagedex-io/pagedex/internal/config"
	"github.com/pagedex-io/pagedex/internal/db"
	dbRedis "github.com/pagedex-io/pagedex/internal/db/redis"
	"github.com/pagedex-io/pagedex/internal/domain"
	"github.com/pagedex-io/pagedex/internal/extract"
	logpkg "github.com/pagedex-io/pagedex/internal/logger"
	"github.com/pagedex-io/pagedex/internal/metrics"
	corpusrepo "github.com/pagedex-io/pagedex/internal/repository/corpus"
	"github.com/pagedex-io/pagedex/internal/repository/embcache"
	"github.com/pagedex-io/pagedex/internal/transport/httpapi"
	openaiEmb "github.com/pagedex-io/pagedex/internal/transport/openai"
	embeddinguc "github.com/pagedex-io/pagedex/internal/usecase/embedding"
	healthuc "github.com/pagedex-io/pagedex/internal/usecase/health"
	indexeruc "github.com/pagedex-io/pagedex/internal/usecase/indexer"
	searchuc "github.com/pagedex-io/pagedex/internal/usecase/search"
	"github.com/pagedex-io/pagedex/internal/version"
)

// embeddingProvider labels embedding metrics. The endpoint is any
// OpenAI-compatible server, so the wire protocol names the label.
const embeddingProvider = "openai"

// embedder is the full vectorization surface the use cases need.
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

func main() {
	// .env is optional, real environments ship variables directly
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pagedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("collection", cfg.Index.Collection),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIndexMetrics()

	// Build embedder chains — composition root. One API client, two chains:
	// corpus texts and queries may carry different instruction prefixes.
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})
	docEmbedder := decorateEmbedder(base, cfg, cfg.Embedding.PassagePrefix, store, logger)
	queryEmbedder := decorateEmbedder(base, cfg, cfg.Embedding.QueryPrefix, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", embeddingProvider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	corpusRepo := corpusrepo.New(store, cfg.Storage.KeyPrefix, cfg.Index.Collection, corpusrepo.IndexParams{
		Dim:         cfg.Embedding.Dimensions,
		Metric:      cfg.Index.DistanceMetric,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	// Создаём индекс сразу: поиск по пустой коллекции должен отвечать
	// пустым списком, а не ошибкой FT.SEARCH.
	if err := corpusRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create search index", zap.Error(err))
	}
	logger.Info("Search index ready", zap.String("collection", cfg.Index.Collection))

	// Create use case services
	indexSvc := indexeruc.New(
		extract.NewPDF(),
		chunker.NewSplitter(cfg.Index.MaxChars, cfg.Index.Overlap),
		docEmbedder,
		base,
		corpusRepo,
		indexeruc.BuildConfig{
			DocumentDir:    cfg.Index.DocumentDir,
			EmbeddingModel: cfg.Embedding.Model,
			CollectionName: cfg.Index.Collection,
		},
		logger,
	)
	searchSvc := searchuc.New(corpusRepo, queryEmbedder, cfg.Index.Collection, cfg.Embedding.Model)

	// Health service probes the store and the embedding endpoint
	healthSvc := healthuc.New(store, base)

	server := httpapi.NewServer(searchSvc, indexSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// decorateEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Prefix
func decorateEmbedder(
	base *openaiEmb.Embedder,
	cfg config.Config,
	prefix string,
	store db.Store,
	logger *zap.Logger,
) embedder {
	cached := embcache.New(
		base, store,
		cfg.Storage.KeyPrefix, cfg.Embedding.Model,
		metrics.EmbeddingCacheTotal, logger,
	)

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		cached, embeddingProvider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)

	// Prefix outermost: the cache then keys on the prefixed text, so the
	// document and query sides never share entries.
	if prefix != "" {
		return domain.NewPrefixEmbedder(instrumented, prefix)
	}

	return instrumented
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
