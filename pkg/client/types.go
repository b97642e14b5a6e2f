package pagedex

import "github.com/pagedex-io/pagedex/internal/domain"

// SearchResult is a single search hit. Score is the raw vector distance,
// lower means closer.
type SearchResult struct {
	ID     string
	Text   string
	Page   int
	Source string
	Score  float64
}

// CollectionStats describes the indexed collection.
type CollectionStats struct {
	TotalChunks    int
	CollectionName string
	EmbeddingModel string
	Sources        []string
}

// BuildReport is the outcome of one index build. A failed build is carried
// in Error/Message, never as a Go error.
type BuildReport struct {
	Success        bool
	Message        string
	Error          string
	TotalChunks    int
	PreviousChunks int
	FilesProcessed []FileReport
	EmbeddingModel string
	CollectionName string
}

// FileReport holds per-file build statistics.
type FileReport struct {
	Filename string
	Pages    int
	Chunks   int
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

func searchResultsFrom(hits []domain.SearchResult) []SearchResult {
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchResult{
			ID:     h.ID,
			Text:   h.Text,
			Page:   h.Page,
			Source: h.Source,
			Score:  h.Score,
		})
	}
	return out
}

func statsFrom(s domain.CollectionStats) CollectionStats {
	return CollectionStats{
		TotalChunks:    s.TotalChunks,
		CollectionName: s.CollectionName,
		EmbeddingModel: s.EmbeddingModel,
		Sources:        s.Sources,
	}
}

func buildReportFrom(r domain.BuildReport) BuildReport {
	files := make([]FileReport, 0, len(r.FilesProcessed))
	for _, f := range r.FilesProcessed {
		files = append(files, FileReport{Filename: f.Filename, Pages: f.Pages, Chunks: f.Chunks})
	}
	return BuildReport{
		Success:        r.Success,
		Message:        r.Message,
		Error:          r.Error,
		TotalChunks:    r.TotalChunks,
		PreviousChunks: r.PreviousChunks,
		FilesProcessed: files,
		EmbeddingModel: r.EmbeddingModel,
		CollectionName: r.CollectionName,
	}
}
