package usecase

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vecdb/internal/adapter/cache"
	"vecdb/internal/adapter/store"
	"vecdb/internal/domain"
)

const testDim = 4

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st, Options{Dimension: testDim}), st
}

func contents(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out
}

func abc() []domain.Document {
	return []domain.Document{
		{Content: "a", Embedding: []float32{1, 0, 0, 0}},
		{Content: "b", Embedding: []float32{0, 1, 0, 0}},
		{Content: "c", Embedding: []float32{10, 10, 0, 0}},
	}
}

func TestScenarioABC(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	docs := abc()
	for _, d := range docs {
		require.NoError(t, svc.Add(ctx, d))
	}

	got, err := svc.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, contents(got))
	assert.Equal(t, 3, svc.Size())

	require.NoError(t, svc.Delete(ctx, docs[1]))
	got, err = svc.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, contents(got))
	assert.Equal(t, 2, svc.Size())
}

func TestSizeDedupsByContent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.Add(ctx, domain.Document{Content: "x", Embedding: []float32{1}}))
	assert.Equal(t, 1, svc.Size())

	require.NoError(t, svc.Add(ctx, domain.Document{Content: "x", Embedding: []float32{2}}))
	assert.Equal(t, 1, svc.Size(), "same content, different embedding")
	assert.Equal(t, 2, svc.Points())

	require.NoError(t, svc.Add(ctx, domain.Document{Content: "y", Embedding: []float32{1}}))
	assert.Equal(t, 2, svc.Size())
}

func TestDuplicateInsertsGrowIndex(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	doc := domain.Document{Content: "dup", Embedding: []float32{1, 1}}

	require.NoError(t, svc.Add(ctx, doc))
	require.NoError(t, svc.Add(ctx, doc))
	assert.Equal(t, 1, svc.Size())
	assert.Equal(t, 2, svc.Points())

	got, err := svc.Search(ctx, doc.Embedding, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup", "dup"}, contents(got))
}

func TestNearestNeighborIsItself(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, d := range abc() {
		require.NoError(t, svc.Add(ctx, d))
	}
	for _, d := range abc() {
		got, err := svc.Search(ctx, d.Embedding, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, d.Content, got[0].Content)
	}
}

func TestAddThenDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Add(ctx, abc()[0]))
	before := svc.Size()

	doc := domain.Document{Content: "gone", Embedding: []float32{3, 3, 3, 3}}
	require.NoError(t, svc.Add(ctx, doc))
	require.NoError(t, svc.Delete(ctx, doc))

	got, err := svc.Search(ctx, doc.Embedding, 10)
	require.NoError(t, err)
	assert.NotContains(t, contents(got), "gone")
	assert.Equal(t, before, svc.Size())
}

func TestDeleteWithWrongEmbeddingLeavesDanglingPoint(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Add(ctx, domain.Document{Content: "k", Embedding: []float32{1, 2}}))

	// The point is not found, but the content is removed anyway.
	require.NoError(t, svc.Delete(ctx, domain.Document{Content: "k", Embedding: []float32{9, 9}}))
	assert.Equal(t, 0, svc.Size())
	assert.Equal(t, 1, svc.Points())

	got, err := svc.Search(ctx, []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, got, "dangling identifiers are skipped")
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Delete(ctx, domain.Document{Content: "never", Embedding: []float32{1}}))
	assert.Equal(t, 0, svc.Size())
}

func TestSearchEdgeCases(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	got, err := svc.Search(ctx, []float32{1, 2, 3, 4}, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	for _, d := range abc() {
		require.NoError(t, svc.Add(ctx, d))
	}
	got, err = svc.Search(ctx, []float32{1, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.Search(ctx, []float32{1, 0, 0, 0}, -3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Search(ctx, []float32{1, 0, 0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestPadAndTruncate(t *testing.T) {
	ctx := context.Background()
	const dim = domain.DefaultDimension
	svc := NewService(store.NewMemoryStore(), Options{Dimension: dim})

	canonical := func(vals ...float32) []float32 { return domain.Normalize(vals, dim) }
	require.NoError(t, svc.Add(ctx, domain.Document{Content: "a", Embedding: canonical(1)}))
	require.NoError(t, svc.Add(ctx, domain.Document{Content: "b", Embedding: canonical(0, 1)}))
	require.NoError(t, svc.Add(ctx, domain.Document{Content: "c", Embedding: canonical(10, 10)}))

	want, err := svc.Search(ctx, canonical(1), 3)
	require.NoError(t, err)

	short := canonical(1)[:dim-1]
	got, err := svc.Search(ctx, short, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	long := append(canonical(1), 99)
	got, err = svc.Search(ctx, long, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Deleting with a padded-equivalent embedding finds the exact point.
	require.NoError(t, svc.Delete(ctx, domain.Document{Content: "a", Embedding: []float32{1}}))
	assert.Equal(t, 2, svc.Points())
}

func TestMalformedEmbedding(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	err := svc.Add(ctx, domain.Document{Content: "x", Embedding: []float32{1, nan}})
	assert.ErrorIs(t, err, domain.ErrMalformedEmbedding)
	_, err = svc.Search(ctx, []float32{inf}, 1)
	assert.ErrorIs(t, err, domain.ErrMalformedEmbedding)
	err = svc.Delete(ctx, domain.Document{Content: "x", Embedding: []float32{nan}})
	assert.ErrorIs(t, err, domain.ErrMalformedEmbedding)

	n, err := st.Log().Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected input must not reach the log")
	assert.Zero(t, svc.Size())
}

func TestEmptyEmbeddingIsZeroVector(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Add(ctx, domain.Document{Content: "origin"}))

	got, err := svc.Search(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, contents(got))
}

func TestAddAppendsFullDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	long := domain.Document{Content: "long", Embedding: []float32{1, 2, 3, 4, 5, 6}}
	require.NoError(t, svc.Add(ctx, long))
	require.NoError(t, svc.Delete(ctx, long))

	var logged []domain.Document
	for rec, err := range svc.Log().All(ctx) {
		require.NoError(t, err)
		logged = append(logged, rec.Document)
	}
	assert.Equal(t, []domain.Document{long}, logged, "log keeps the raw embedding and ignores deletes")
}

func TestAddRollsBackWhenAppendFails(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	st.Capacity = 2

	first := domain.Document{Content: "a", Embedding: []float32{1}}
	require.NoError(t, svc.Add(ctx, first))
	require.NoError(t, svc.Add(ctx, first))

	err := svc.Add(ctx, first)
	assert.ErrorIs(t, err, store.ErrCapacity)
	assert.Equal(t, 2, svc.Points(), "earlier duplicates survive the rollback")
	assert.Equal(t, 1, svc.Size())

	err = svc.Add(ctx, domain.Document{Content: "new", Embedding: []float32{2}})
	assert.ErrorIs(t, err, store.ErrCapacity)
	assert.Equal(t, 1, svc.Size())
	got, err := svc.Search(ctx, []float32{2}, 5)
	require.NoError(t, err)
	assert.NotContains(t, contents(got), "new")
}

func TestRollbackKeepsTieOrder(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	st.Capacity = 2

	x := domain.Document{Content: "x", Embedding: []float32{3, 3}}
	y := domain.Document{Content: "y", Embedding: []float32{3, 3}}
	require.NoError(t, svc.Add(ctx, x))
	require.NoError(t, svc.Add(ctx, y))
	assert.ErrorIs(t, svc.Add(ctx, x), store.ErrCapacity)

	got, err := svc.Search(ctx, []float32{3, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, contents(got), "x was added before y")
	assert.Equal(t, 2, svc.Points())
}

func TestSearchResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Add(ctx, abc()[0]))

	got, err := svc.Search(ctx, abc()[0].Embedding, 1)
	require.NoError(t, err)
	got[0].Content = "mutated"

	again, err := svc.Search(ctx, abc()[0].Embedding, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Content)
}

func TestSearchCacheInvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), Options{
		Dimension: testDim,
		Cache:     cache.NewSearchCache(8),
	})
	q := []float32{1, 0, 0, 0}

	require.NoError(t, svc.Add(ctx, abc()[1]))
	got, err := svc.Search(ctx, q, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, contents(got))

	require.NoError(t, svc.Add(ctx, abc()[0]))
	got, err = svc.Search(ctx, q, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, contents(got))

	require.NoError(t, svc.Delete(ctx, abc()[0]))
	got, err = svc.Search(ctx, q, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, contents(got))
}

func TestRebuildFromLog(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	for _, d := range abc() {
		require.NoError(t, svc.Add(ctx, d))
	}

	// A new process over the same storage starts empty.
	restarted := NewService(st, Options{Dimension: testDim})
	require.NoError(t, restarted.Startup(ctx))
	assert.Equal(t, 0, restarted.Size())
	got, err := restarted.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	var calls []uint64
	n, err := restarted.RebuildFromLog(ctx, func(done, total uint64) {
		assert.Equal(t, uint64(3), total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, []uint64{1, 2, 3}, calls)
	assert.Equal(t, 3, restarted.Size())

	got, err = restarted.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, contents(got))

	// Rebuilding twice does not duplicate points.
	_, err = restarted.RebuildFromLog(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, restarted.Points())
}

func TestRebuildOnStartupWithBolt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	st, err := store.NewBoltStore(path)
	require.NoError(t, err)
	svc := NewService(st, Options{Dimension: testDim})
	require.NoError(t, svc.Init("alice", nil, nil))
	for _, d := range abc() {
		require.NoError(t, svc.Add(ctx, d))
	}
	require.NoError(t, svc.Shutdown(ctx))
	require.NoError(t, st.Close())

	st, err = store.NewBoltStore(path)
	require.NoError(t, err)
	defer st.Close()
	svc = NewService(st, Options{Dimension: testDim, RebuildOnStartup: true})
	require.NoError(t, svc.Startup(ctx))

	assert.True(t, svc.Initialized())
	assert.Equal(t, domain.Identity("alice"), *svc.Owner())
	assert.Equal(t, 3, svc.Size())
	got, err := svc.Search(ctx, []float32{10, 10, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, contents(got))
}
