package corpus

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pagedex-io/pagedex/internal/db"
	"github.com/pagedex-io/pagedex/internal/domain"
)

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	var checkedName string
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		checkedName = name
		return false, nil
	}
	var def *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, d *db.IndexDefinition) error {
		def = d
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if checkedName != "pagedex:manual_chunks:idx" {
		t.Errorf("checked index %q, want pagedex:manual_chunks:idx", checkedName)
	}
	if def == nil {
		t.Fatal("CreateIndex was not called")
	}
	if def.Name != "pagedex:manual_chunks:idx" {
		t.Errorf("index name = %q", def.Name)
	}
	if !reflect.DeepEqual(def.Prefixes, []string{"pagedex:manual_chunks:"}) {
		t.Errorf("prefixes = %v", def.Prefixes)
	}
	if len(def.Fields) != 4 {
		t.Fatalf("got %d fields, want 4", len(def.Fields))
	}
	if def.Fields[0].Name != "page" || def.Fields[0].Type != db.IndexFieldNumeric {
		t.Errorf("field 0 = %+v, want NUMERIC page", def.Fields[0])
	}
	if def.Fields[1].Name != "source" || def.Fields[1].Type != db.IndexFieldTag {
		t.Errorf("field 1 = %+v, want TAG source", def.Fields[1])
	}
	if def.Fields[2].Name != "file_path" || def.Fields[2].Type != db.IndexFieldTag {
		t.Errorf("field 2 = %+v, want TAG file_path", def.Fields[2])
	}

	vec := def.Fields[3]
	if vec.Name != "__vector" || vec.Type != db.IndexFieldVector {
		t.Fatalf("field 3 = %+v, want VECTOR __vector", vec)
	}
	if vec.Alias != "vector" {
		t.Errorf("vector alias = %q, want vector", vec.Alias)
	}
	if vec.VectorAlgo != db.VectorHNSW {
		t.Errorf("vector algo = %q, want HNSW", vec.VectorAlgo)
	}
	if vec.VectorDim != 4 {
		t.Errorf("vector dim = %d, want 4", vec.VectorDim)
	}
	if vec.VectorDistance != db.DistanceCosine {
		t.Errorf("vector metric = %q, want COSINE", vec.VectorDistance)
	}
	if vec.VectorM != 32 || vec.VectorEFConstruct != 400 {
		t.Errorf("hnsw params M=%d EF=%d, want 32/400", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestEnsureIndex_SkipsExisting(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) {
		return true, nil
	}
	created := false
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		created = true
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if created {
		t.Error("CreateIndex called for an existing index")
	}
}

func TestEnsureIndex_ConcurrentCreate(t *testing.T) {
	// Второй инстанс успел создать индекс между проверкой и созданием.
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) {
		return false, nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
}

func TestEnsureIndex_CheckError(t *testing.T) {
	repo, ms := newTestRepo(t)

	errPing := errors.New("connection refused")
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) {
		return false, errPing
	}

	err := repo.EnsureIndex(context.Background())
	if !errors.Is(err, errPing) {
		t.Fatalf("err = %v, want wrapped %v", err, errPing)
	}
}

func TestEnsureIndex_CreateError(t *testing.T) {
	repo, ms := newTestRepo(t)

	errCreate := errors.New("OOM")
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return errCreate
	}

	err := repo.EnsureIndex(context.Background())
	if !errors.Is(err, errCreate) {
		t.Fatalf("err = %v, want wrapped %v", err, errCreate)
	}
}

func TestReplaceAll_ReplacesExistingChunks(t *testing.T) {
	repo, ms := newTestRepo(t)

	var calls []string
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		calls = append(calls, "scan")
		if pattern != "pagedex:manual_chunks:*" {
			t.Errorf("scan pattern = %q", pattern)
		}
		return []string{
			"pagedex:manual_chunks:chunk_0",
			"pagedex:manual_chunks:chunk_1",
			"pagedex:manual_chunks:chunk_2",
		}, nil
	}
	var deleted []string
	ms.delMultiFn = func(_ context.Context, keys []string) error {
		calls = append(calls, "del")
		deleted = keys
		return nil
	}
	var items []db.HashSetItem
	ms.hSetMultiFn = func(_ context.Context, batch []db.HashSetItem) error {
		calls = append(calls, "hset")
		items = batch
		return nil
	}

	chunks := []domain.Chunk{
		{ID: "chunk_0", Text: "first", Page: 1, Source: "a.pdf", FilePath: "/docs/a.pdf", Vector: testVector()},
		{ID: "chunk_1", Text: "second", Page: 2, Source: "b.pdf", FilePath: "/docs/b.pdf", Vector: testVector()},
	}
	previous, err := repo.ReplaceAll(context.Background(), chunks)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if previous != 3 {
		t.Errorf("previous = %d, want 3", previous)
	}
	if !reflect.DeepEqual(calls, []string{"scan", "del", "hset"}) {
		t.Errorf("call order = %v", calls)
	}
	if len(deleted) != 3 {
		t.Errorf("deleted %d keys, want 3", len(deleted))
	}
	if len(items) != 2 {
		t.Fatalf("inserted %d items, want 2", len(items))
	}

	first := items[0]
	if first.Key != "pagedex:manual_chunks:chunk_0" {
		t.Errorf("item key = %q", first.Key)
	}
	if first.Fields["__content"] != "first" {
		t.Errorf("__content = %q", first.Fields["__content"])
	}
	if first.Fields["page"] != "1" {
		t.Errorf("page = %q", first.Fields["page"])
	}
	if first.Fields["source"] != "a.pdf" {
		t.Errorf("source = %q", first.Fields["source"])
	}
	if first.Fields["file_path"] != "/docs/a.pdf" {
		t.Errorf("file_path = %q", first.Fields["file_path"])
	}

	blob := []byte(first.Fields["__vector"])
	if len(blob) != 16 {
		t.Fatalf("__vector blob is %d bytes, want 16", len(blob))
	}
	got := math.Float32frombits(binary.LittleEndian.Uint32(blob[:4]))
	if got != float32(0.1) {
		t.Errorf("first float = %v, want 0.1", got)
	}
}

func TestReplaceAll_EmptyStore(t *testing.T) {
	repo, ms := newTestRepo(t)

	deleted := false
	ms.delMultiFn = func(_ context.Context, _ []string) error {
		deleted = true
		return nil
	}
	inserted := 0
	ms.hSetMultiFn = func(_ context.Context, batch []db.HashSetItem) error {
		inserted = len(batch)
		return nil
	}

	previous, err := repo.ReplaceAll(context.Background(), []domain.Chunk{
		{ID: "chunk_0", Text: "only", Page: 1, Source: "a.pdf", Vector: testVector()},
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if previous != 0 {
		t.Errorf("previous = %d, want 0", previous)
	}
	if deleted {
		t.Error("DelMulti called with nothing to delete")
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
}

func TestReplaceAll_NoChunks(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"pagedex:manual_chunks:chunk_0"}, nil
	}
	deleted := false
	ms.delMultiFn = func(_ context.Context, _ []string) error {
		deleted = true
		return nil
	}
	inserted := false
	ms.hSetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		inserted = true
		return nil
	}

	previous, err := repo.ReplaceAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if previous != 1 {
		t.Errorf("previous = %d, want 1", previous)
	}
	if !deleted {
		t.Error("old chunks were not deleted")
	}
	if inserted {
		t.Error("HSetMulti called with no chunks")
	}
}

func TestReplaceAll_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)

	errScan := errors.New("scan failed")
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errScan
	}

	_, err := repo.ReplaceAll(context.Background(), nil)
	if !errors.Is(err, errScan) {
		t.Fatalf("err = %v, want wrapped %v", err, errScan)
	}
}

func TestReplaceAll_DeleteError(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"pagedex:manual_chunks:chunk_0"}, nil
	}
	errDel := errors.New("del failed")
	ms.delMultiFn = func(_ context.Context, _ []string) error {
		return errDel
	}

	_, err := repo.ReplaceAll(context.Background(), nil)
	if !errors.Is(err, errDel) {
		t.Fatalf("err = %v, want wrapped %v", err, errDel)
	}
}

func TestReplaceAll_InsertError(t *testing.T) {
	repo, ms := newTestRepo(t)

	errSet := errors.New("hset failed")
	ms.hSetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		return errSet
	}

	_, err := repo.ReplaceAll(context.Background(), []domain.Chunk{
		{ID: "chunk_0", Text: "x", Vector: testVector()},
	})
	if !errors.Is(err, errSet) {
		t.Fatalf("err = %v, want wrapped %v", err, errSet)
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != "pagedex:manual_chunks:idx" {
			t.Errorf("index = %q", index)
		}
		if query != "*" {
			t.Errorf("query = %q", query)
		}
		return 42, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestCount_Error(t *testing.T) {
	repo, ms := newTestRepo(t)

	errCount := errors.New("index missing")
	ms.searchCountFn = func(_ context.Context, _, _ string) (int, error) {
		return 0, errCount
	}

	_, err := repo.Count(context.Background())
	if !errors.Is(err, errCount) {
		t.Fatalf("err = %v, want wrapped %v", err, errCount)
	}
}

func TestSources_DedupesAndSorts(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error) {
		if index != "pagedex:manual_chunks:idx" || query != "*" {
			t.Errorf("query = %q on %q", query, index)
		}
		if offset != 0 || limit != 100 {
			t.Errorf("window = %d..%d, want 0..100", offset, limit)
		}
		if !reflect.DeepEqual(fields, []string{"source"}) {
			t.Errorf("fields = %v", fields)
		}
		return &db.SearchResult{Total: 4, Entries: []db.SearchEntry{
			{Key: "pagedex:manual_chunks:chunk_0", Fields: map[string]string{"source": "manual_b.pdf"}},
			{Key: "pagedex:manual_chunks:chunk_1", Fields: map[string]string{"source": "manual_a.pdf"}},
			{Key: "pagedex:manual_chunks:chunk_2", Fields: map[string]string{"source": "manual_a.pdf"}},
			{Key: "pagedex:manual_chunks:chunk_3", Fields: map[string]string{}},
		}}, nil
	}

	got, err := repo.Sources(context.Background(), 100)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	want := []string{"manual_a.pdf", "manual_b.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sources = %v, want %v", got, want)
	}
}

func TestSources_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, _, _ string, _, _ int, _ []string) (*db.SearchResult, error) {
		return &db.SearchResult{}, nil
	}

	got, err := repo.Sources(context.Background(), 100)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	// Пустая коллекция — пустой срез, не nil.
	if got == nil {
		t.Fatal("sources = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("sources = %v, want none", got)
	}
}

func TestSources_Error(t *testing.T) {
	repo, ms := newTestRepo(t)

	errList := errors.New("search failed")
	ms.searchListFn = func(_ context.Context, _, _ string, _, _ int, _ []string) (*db.SearchResult, error) {
		return nil, errList
	}

	_, err := repo.Sources(context.Background(), 100)
	if !errors.Is(err, errList) {
		t.Fatalf("err = %v, want wrapped %v", err, errList)
	}
}

func TestSearchKNN_MapsEntries(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "pagedex:manual_chunks:idx" {
			t.Errorf("index = %q", q.IndexName)
		}
		if q.K != 5 {
			t.Errorf("k = %d, want 5", q.K)
		}
		if !reflect.DeepEqual(q.Vector, testVector()) {
			t.Errorf("vector = %v", q.Vector)
		}
		if !reflect.DeepEqual(q.ReturnFields, []string{"__content", "page", "source", "__vector_score"}) {
			t.Errorf("return fields = %v", q.ReturnFields)
		}
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{
				Key:    "pagedex:manual_chunks:chunk_7",
				Score:  0.12,
				Fields: map[string]string{"__content": "reset procedure", "page": "14", "source": "manual.pdf"},
			},
			{
				Key:    "pagedex:manual_chunks:chunk_2",
				Score:  0.48,
				Fields: map[string]string{"__content": "safety notes", "page": "3", "source": "manual.pdf"},
			},
		}}, nil
	}

	got, err := repo.SearchKNN(context.Background(), testVector(), 5)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	want := []domain.SearchResult{
		{ID: "chunk_7", Text: "reset procedure", Page: 14, Source: "manual.pdf", Score: 0.12},
		{ID: "chunk_2", Text: "safety notes", Page: 3, Source: "manual.pdf", Score: 0.48},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("results = %+v, want %+v", got, want)
	}
}

func TestSearchKNN_MissingFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "pagedex:manual_chunks:chunk_0", Score: 0.9, Fields: map[string]string{"__content": "bare"}},
		}}, nil
	}

	got, err := repo.SearchKNN(context.Background(), testVector(), 1)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Page != 0 {
		t.Errorf("page = %d, want 0", got[0].Page)
	}
	if got[0].Source != "" {
		t.Errorf("source = %q, want empty", got[0].Source)
	}
}

func TestSearchKNN_NoHits(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 0}, nil
	}

	got, err := repo.SearchKNN(context.Background(), testVector(), 5)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if got != nil {
		t.Errorf("results = %v, want nil", got)
	}
}

func TestSearchKNN_Error(t *testing.T) {
	repo, ms := newTestRepo(t)

	errKNN := errors.New("no such index")
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errKNN
	}

	_, err := repo.SearchKNN(context.Background(), testVector(), 5)
	if !errors.Is(err, errKNN) {
		t.Fatalf("err = %v, want wrapped %v", err, errKNN)
	}
}
