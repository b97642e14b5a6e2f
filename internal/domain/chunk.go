package domain

// Chunk is one indexed slice of a source PDF. Immutable once built:
// the index pipeline creates chunks, nothing mutates them afterwards.
type Chunk struct {
	ID       string
	Text     string
	Page     int    // 1-based page the chunk was extracted from
	Source   string // PDF filename without directory
	FilePath string
	Vector   []float32 // not exposed to clients
}

// SearchResult is a single KNN hit. Score is the raw distance reported by
// the store: lower means closer, values are not normalized.
type SearchResult struct {
	ID     string
	Text   string
	Page   int
	Source string
	Score  float64
}

// CollectionStats describes the current index contents. TotalChunks is exact;
// Sources comes from a bounded sample and may miss files in large collections.
type CollectionStats struct {
	TotalChunks    int
	CollectionName string
	EmbeddingModel string
	Sources        []string
}
