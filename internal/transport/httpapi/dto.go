package httpapi

import (
	"github.com/pagedex-io/pagedex/internal/domain"
	healthuc "github.com/pagedex-io/pagedex/internal/usecase/health"
)

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type searchResult struct {
	ID     string  `json:"id,omitempty"`
	Text   string  `json:"text"`
	Page   int     `json:"page"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type searchResponse struct {
	Query        string         `json:"query"`
	Results      []searchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

type statsResponse struct {
	TotalChunks    int      `json:"total_chunks"`
	CollectionName string   `json:"collection_name"`
	EmbeddingModel string   `json:"embedding_model"`
	Sources        []string `json:"sources"`
}

type fileReport struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
}

type buildReportResponse struct {
	Success        bool         `json:"success"`
	Message        string       `json:"message,omitempty"`
	Error          string       `json:"error,omitempty"`
	TotalChunks    int          `json:"total_chunks"`
	PreviousChunks int          `json:"previous_chunks"`
	FilesProcessed []fileReport `json:"files_processed"`
	EmbeddingModel string       `json:"embedding_model,omitempty"`
	CollectionName string       `json:"collection_name,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func searchResponseFrom(query string, results []domain.SearchResult) searchResponse {
	// Пустой срез, не nil: клиент всегда видит "results": [].
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResult{
			ID:     r.ID,
			Text:   r.Text,
			Page:   r.Page,
			Source: r.Source,
			Score:  r.Score,
		})
	}
	return searchResponse{
		Query:        query,
		Results:      out,
		TotalResults: len(out),
	}
}

func statsResponseFrom(stats domain.CollectionStats) statsResponse {
	sources := stats.Sources
	if sources == nil {
		sources = []string{}
	}
	return statsResponse{
		TotalChunks:    stats.TotalChunks,
		CollectionName: stats.CollectionName,
		EmbeddingModel: stats.EmbeddingModel,
		Sources:        sources,
	}
}

func buildReportResponseFrom(report domain.BuildReport) buildReportResponse {
	files := make([]fileReport, 0, len(report.FilesProcessed))
	for _, f := range report.FilesProcessed {
		files = append(files, fileReport{
			Filename: f.Filename,
			Pages:    f.Pages,
			Chunks:   f.Chunks,
		})
	}
	return buildReportResponse{
		Success:        report.Success,
		Message:        report.Message,
		Error:          report.Error,
		TotalChunks:    report.TotalChunks,
		PreviousChunks: report.PreviousChunks,
		FilesProcessed: files,
		EmbeddingModel: report.EmbeddingModel,
		CollectionName: report.CollectionName,
	}
}

func healthResponseFrom(report healthuc.Report) healthResponse {
	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	return healthResponse{
		Status: string(report.Status),
		Checks: checks,
	}
}
