package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagedex-io/pagedex/internal/domain"
	"github.com/pagedex-io/pagedex/internal/metrics"
)

// BuildConfig carries the static inputs of every build pass.
type BuildConfig struct {
	DocumentDir    string
	EmbeddingModel string
	CollectionName string
}

// Service rebuilds the chunk collection from the PDF corpus on demand.
type Service struct {
	extractor Extractor
	splitter  Splitter
	embedder  Embedder
	loader    ModelLoader
	corpus    Corpus
	cfg       BuildConfig
	logger    *zap.Logger

	loadMu     sync.Mutex
	modelReady bool
}

// New creates an index build service.
func New(
	extractor Extractor, splitter Splitter,
	embedder Embedder, loader ModelLoader,
	corpus Corpus, cfg BuildConfig, logger *zap.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		loader:    loader,
		corpus:    corpus,
		cfg:       cfg,
		logger:    logger,
	}
}

// BuildIndex replaces the stored collection with chunks built from the
// current document directory. Failures never escape as Go errors: every
// stage folds its outcome into the returned report.
func (s *Service) BuildIndex(ctx context.Context) domain.BuildReport {
	start := time.Now()
	report := s.build(ctx)
	took := time.Since(start)

	metrics.IndexBuildDuration.Observe(took.Seconds())
	if report.Success {
		metrics.IndexBuildsTotal.WithLabelValues("success").Inc()
		metrics.IndexedChunks.Set(float64(report.TotalChunks))
		s.logger.Info("index built",
			zap.Int("total_chunks", report.TotalChunks),
			zap.Int("previous_chunks", report.PreviousChunks),
			zap.Int("files", len(report.FilesProcessed)),
			zap.Duration("took", took),
		)
	} else {
		metrics.IndexBuildsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn("index build failed",
			zap.String("reason", report.Error),
			zap.Duration("took", took),
		)
	}
	return report
}

func (s *Service) build(ctx context.Context) domain.BuildReport {
	info, err := os.Stat(s.cfg.DocumentDir)
	if err != nil || !info.IsDir() {
		return domain.BuildReport{
			Error:   fmt.Sprintf("Document directory '%s' not found.", s.cfg.DocumentDir),
			Message: "Please create the directory and add PDF files.",
		}
	}

	paths, globErr := filepath.Glob(filepath.Join(s.cfg.DocumentDir, "*.pdf"))
	if globErr != nil || len(paths) == 0 {
		// Метасимвол в имени каталога ломает паттерн; исход тот же, что и без файлов.
		return domain.BuildReport{
			Error:   fmt.Sprintf("No PDF files found in '%s'.", s.cfg.DocumentDir),
			Message: "Please add PDF files to the document_source directory.",
		}
	}
	// Sorted filename order fixes the chunk id assignment.
	sort.Strings(paths)

	var (
		chunks []domain.Chunk
		files  []domain.FileReport
		next   int
	)
	for _, path := range paths {
		pages, err := s.extractor.FromFile(ctx, path)
		if err != nil {
			return domain.BuildReport{
				Error:          fmt.Sprintf("Error processing %s: %v", filepath.Base(path), err),
				FilesProcessed: files,
			}
		}

		source := filepath.Base(path)
		count := 0
		for _, pg := range pages {
			for _, text := range s.splitter.Split(pg.Text) {
				chunks = append(chunks, domain.Chunk{
					ID:       fmt.Sprintf("chunk_%d", next),
					Text:     text,
					Page:     pg.Number,
					Source:   source,
					FilePath: path,
				})
				next++
				count++
			}
		}
		files = append(files, domain.FileReport{
			Filename: source,
			Pages:    len(pages),
			Chunks:   count,
		})
	}

	if len(chunks) == 0 {
		return domain.BuildReport{
			Error:   "No text chunks collected from PDFs.",
			Message: "PDFs may be empty or unreadable.",
		}
	}

	if err := s.ensureModel(ctx); err != nil {
		return domain.BuildReport{
			Error: fmt.Sprintf("Failed to load embedding model: %v", err),
		}
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	batch, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BuildReport{
			Error:          fmt.Sprintf("Failed to encode documents: %v", err),
			FilesProcessed: files,
		}
	}
	if len(batch.Embeddings) != len(chunks) {
		return domain.BuildReport{
			Error: fmt.Sprintf("Failed to encode documents: got %d vectors for %d chunks",
				len(batch.Embeddings), len(chunks)),
			FilesProcessed: files,
		}
	}
	for i := range chunks {
		chunks[i].Vector = batch.Embeddings[i]
	}
	s.logger.Debug("encoded corpus",
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", batch.TotalTokens),
	)

	if err := s.corpus.EnsureIndex(ctx); err != nil {
		return s.storeFailure(err, files)
	}
	previous, err := s.corpus.ReplaceAll(ctx, chunks)
	if err != nil {
		return s.storeFailure(err, files)
	}
	total, err := s.corpus.Count(ctx)
	if err != nil {
		return s.storeFailure(err, files)
	}

	return domain.BuildReport{
		Success:        true,
		Message:        "Index built successfully",
		TotalChunks:    total,
		PreviousChunks: previous,
		FilesProcessed: files,
		EmbeddingModel: s.cfg.EmbeddingModel,
		CollectionName: s.cfg.CollectionName,
	}
}

func (s *Service) storeFailure(err error, files []domain.FileReport) domain.BuildReport {
	return domain.BuildReport{
		Error:          fmt.Sprintf("Failed to update collection: %v", err),
		FilesProcessed: files,
	}
}

// ensureModel probes the embedding backend once per process.
// Неудачная проба не кэшируется, следующий билд попробует снова.
func (s *Service) ensureModel(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.modelReady {
		return nil
	}
	if err := s.loader.Load(ctx); err != nil {
		return err
	}
	s.modelReady = true
	return nil
}
