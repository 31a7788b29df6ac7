package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vecdb/internal/adapter/store"
	"vecdb/internal/domain"
	"vecdb/internal/port"
	"vecdb/internal/usecase"
)

func main() {
	n := flag.Int("n", 10000, "Number of documents to add")
	dim := flag.Int("dim", 64, "Embedding dimension")
	queries := flag.Int("q", 200, "Number of queries")
	topK := flag.Int("k", 10, "Number of results per query")
	backend := flag.String("backend", "memory", "Storage backend: memory, bolt")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(*seed, *seed))

	st, cleanup, err := openBackend(*backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	svc := usecase.NewService(st, usecase.Options{Dimension: *dim})

	fmt.Println("VECTOR SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d  Dimension: %d  Backend: %s\n\n", *n, *dim, *backend)

	docs := make([]domain.Document, *n)
	for i := range docs {
		docs[i] = domain.Document{
			Content:   fmt.Sprintf("doc-%d", i),
			Embedding: randomVector(rng, *dim),
		}
	}

	start := time.Now()
	for _, d := range docs {
		if err := svc.Add(ctx, d); err != nil {
			fmt.Fprintf(os.Stderr, "Add error: %v\n", err)
			os.Exit(1)
		}
	}
	addTime := time.Since(start)
	fmt.Printf("Add:     %v total, %v/doc\n", addTime, addTime/time.Duration(max(*n, 1)))

	var searchTime time.Duration
	hits, expected := 0, 0
	for range *queries {
		q := randomVector(rng, *dim)

		t := time.Now()
		results, err := svc.Search(ctx, q, *topK)
		searchTime += time.Since(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}

		want := bruteForce(docs, q, *topK)
		expected += len(want)
		got := make(map[string]bool, len(results))
		for _, r := range results {
			got[r.Content] = true
		}
		for _, w := range want {
			if got[w] {
				hits++
			}
		}
	}
	fmt.Printf("Search:  %v total, %v/query\n", searchTime, searchTime/time.Duration(max(*queries, 1)))

	start = time.Now()
	replayed, err := svc.RebuildFromLog(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rebuild: %v for %d records\n", time.Since(start), replayed)

	fmt.Println(strings.Repeat("=", 70))
	recall := 1.0
	if expected > 0 {
		recall = float64(hits) / float64(expected)
	}
	fmt.Printf("Recall@%d against brute force: %.4f\n", *topK, recall)
	if recall < 1 {
		fmt.Println("  Status: MISMATCH - exact search disagrees with brute force")
		os.Exit(1)
	}
	fmt.Println("  Status: EXACT")
}

func openBackend(name string) (port.Storage, func(), error) {
	switch name {
	case "memory":
		st := store.NewMemoryStore()
		return st, func() { st.Close() }, nil
	case "bolt":
		dir, err := os.MkdirTemp("", "vecdb-bench-*")
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewBoltStore(filepath.Join(dir, "store.db"))
		if err != nil {
			os.RemoveAll(dir)
			return nil, nil, err
		}
		return st, func() {
			st.Close()
			os.RemoveAll(dir)
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend: %s", name)
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

// bruteForce returns the contents of the k documents nearest to q. Ties
// are broken by insertion order.
func bruteForce(docs []domain.Document, q []float32, k int) []string {
	type scored struct {
		idx  int
		dist float64
	}
	all := make([]scored, len(docs))
	for i, d := range docs {
		var sum float64
		for j := range q {
			diff := float64(d.Embedding[j]) - float64(q[j])
			sum += diff * diff
		}
		all[i] = scored{i, sum}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if k > len(all) {
		k = len(all)
	}
	out := make([]string, k)
	for i := range out {
		out[i] = docs[all[i].idx].Content
	}
	return out
}
