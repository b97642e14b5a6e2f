package domain

// FileReport is the per-file slice of a build report.
type FileReport struct {
	Filename string
	Pages    int
	Chunks   int
}

// BuildReport is the outcome of one index build. Builds never surface Go
// errors to the caller: every failure is folded into Error/Message so the
// report stays a plain data value whichever stage broke.
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
