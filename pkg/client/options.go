package pagedex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix   string
	collection  string
	documentDir string

	embedder Embedder

	embBaseURL    string
	embAPIKey     string
	embModel      string
	embDimensions int
	queryPrefix   string
	passagePrefix string

	maxChars int
	overlap  int

	distanceMetric  string
	hnswM           int
	hnswEFConstruct int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithOpenAIEmbedding configures the built-in embedding provider against any
// OpenAI-compatible /v1/embeddings server (TEI, vLLM, OpenAI itself).
// dimensions must match the model output; pass 384 for all-MiniLM-L6-v2.
func WithOpenAIEmbedding(baseURL, apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embBaseURL = baseURL
		c.embAPIKey = apiKey
		c.embModel = model
		c.embDimensions = dimensions
	})
}

// WithEmbedder sets a custom text embedding provider instead of the built-in
// OpenAI-compatible one. The vector dimension still comes from
// WithVectorDimensions (default 384).
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the index vector dimension for custom embedders.
// Defaults to 384 (all-MiniLM-L6-v2).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embDimensions = dim
	})
}

// WithInstructionPrefixes sets per-side instruction prefixes for
// instruction-tuned models (e5, bge). Either may be empty.
func WithInstructionPrefixes(query, passage string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryPrefix = query
		c.passagePrefix = passage
	})
}

// WithCollection sets the chunk collection name. Default: "manual_chunks".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithKeyPrefix sets the store-wide key namespace. Default: "pagedex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDocumentDir sets the PDF corpus directory read by BuildIndex.
// Default: "./document_source".
func WithDocumentDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentDir = dir
	})
}

// WithChunking sets the splitter window. Defaults: maxChars=1500, overlap=200.
// overlap must be smaller than maxChars.
func WithChunking(maxChars, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxChars = maxChars
		c.overlap = overlap
	})
}

// WithDistanceMetric sets the vector distance metric: "cosine", "l2" or "ip".
// Default: "cosine".
func WithDistanceMetric(metric string) Option {
	return optionFunc(func(c *clientConfig) {
		c.distanceMetric = metric
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func (c *clientConfig) applyDefaults() {
	if c.keyPrefix == "" {
		c.keyPrefix = "pagedex:"
	}
	if c.collection == "" {
		c.collection = "manual_chunks"
	}
	if c.documentDir == "" {
		c.documentDir = "./document_source"
	}
	if c.embDimensions <= 0 {
		c.embDimensions = 384
	}
	if c.maxChars <= 0 {
		c.maxChars = 1500
	}
	if c.overlap <= 0 {
		c.overlap = 200
	}
	if c.distanceMetric == "" {
		c.distanceMetric = "cosine"
	}
	if c.hnswM <= 0 {
		c.hnswM = 32
	}
	if c.hnswEFConstruct <= 0 {
		c.hnswEFConstruct = 400
	}
}
