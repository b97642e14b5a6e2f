// Package corpus persists document chunks and their vectors, one hash per
// chunk plus one FT index per collection.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pagedex-io/pagedex/internal/db"
	"github.com/pagedex-io/pagedex/internal/domain"
)

// store is the consumer interface for the chunk corpus (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// IndexParams holds the vector index settings of a collection.
type IndexParams struct {
	Dim         int
	Metric      string // cosine, l2, ip
	M           int
	EFConstruct int
}

// Repo implements chunk persistence for the index builder and query engine.
type Repo struct {
	store      store
	keyPrefix  string
	collection string
	params     IndexParams
}

// New creates a corpus repository for one collection.
func New(s store, keyPrefix, collection string, params IndexParams) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, collection: collection, params: params}
}

// EnsureIndex creates the FT index for the collection if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	idx := r.indexName()

	exists, err := r.store.IndexExists(ctx, idx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", idx, err)
	}
	if exists {
		return nil
	}

	def, err := r.indexDefinition()
	if err != nil {
		return fmt.Errorf("build index %s: %w", idx, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", idx, err)
	}
	return nil
}

// ReplaceAll swaps the whole corpus: existing chunk hashes are deleted and
// the new ones inserted. Returns the pre-deletion chunk count.
// Delete-then-insert is not atomic: a crash between the two steps leaves an
// empty collection until the next successful build.
func (r *Repo) ReplaceAll(ctx context.Context, chunks []domain.Chunk) (int, error) {
	keys, err := r.store.Scan(ctx, r.chunkPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan corpus %s: %w", r.collection, err)
	}
	previous := len(keys)

	if len(keys) > 0 {
		if err := r.store.DelMulti(ctx, keys); err != nil {
			return previous, fmt.Errorf("delete corpus %s: %w", r.collection, err)
		}
	}

	if len(chunks) == 0 {
		return previous, nil
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		items = append(items, db.HashSetItem{
			Key:    r.chunkKey(chunks[i].ID),
			Fields: buildHashFields(&chunks[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return previous, fmt.Errorf("insert corpus %s: %w", r.collection, err)
	}

	return previous, nil
}

// Count returns the exact number of stored chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count corpus %s: %w", r.collection, err)
	}
	return n, nil
}

// Sources returns the distinct source filenames among the first sampleSize
// stored chunks, sorted. With more than sampleSize chunks the list can be
// incomplete; Count stays exact regardless.
func (r *Repo) Sources(ctx context.Context, sampleSize int) ([]string, error) {
	res, err := r.store.SearchList(ctx, r.indexName(), "*", 0, sampleSize, []string{"source"})
	if err != nil {
		return nil, fmt.Errorf("sample sources %s: %w", r.collection, err)
	}
	if res == nil || len(res.Entries) == 0 {
		return []string{}, nil
	}

	seen := make(map[string]bool)
	sources := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		src := e.Fields["source"]
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources, nil
}

// SearchKNN returns the k nearest chunks in store order, scored by raw
// distance (lower is closer).
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__content", "page", "source", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.collection, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, domain.SearchResult{
			ID:     strings.TrimPrefix(entry.Key, r.chunkPrefix()),
			Text:   entry.Fields["__content"],
			Page:   parsePage(entry.Fields["page"]),
			Source: entry.Fields["source"],
			Score:  entry.Score,
		})
	}
	return results, nil
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.indexName()).
		Prefix(r.chunkPrefix()).
		Numeric("page").
		Tag("source").
		Tag("file_path").
		VectorHNSW("__vector", r.params.Dim, distanceMetric(r.params.Metric), r.params.M, r.params.EFConstruct).
		Alias("vector").
		Build()
}

// Key patterns: pagedex:{name}:idx, pagedex:{name}:chunk_{n}

func (r *Repo) indexName() string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, r.collection)
}

func (r *Repo) chunkPrefix() string {
	return fmt.Sprintf("%s%s:", r.keyPrefix, r.collection)
}

func (r *Repo) chunkKey(id string) string {
	return r.chunkPrefix() + id
}

func distanceMetric(metric string) db.DistanceMetric {
	switch metric {
	case "l2":
		return db.DistanceL2
	case "ip":
		return db.DistanceIP
	default:
		return db.DistanceCosine
	}
}

func parsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
