package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"vecdb/internal/adapter/cache"
	"vecdb/internal/adapter/durablelog"
	"vecdb/internal/adapter/hasher"
	"vecdb/internal/adapter/kdtree"
	"vecdb/internal/adapter/memstore"
	"vecdb/internal/domain"
	"vecdb/internal/port"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Dimension int

	Hasher     port.ContentHasher
	Index      port.SpatialIndex
	Contents   port.ContentMap
	Authorizer port.Authorizer

	// Random is the randomness source used when initializing metadata.
	// The default reader yields zero bytes.
	Random io.Reader

	// Cache, when set, memoizes search results between writes.
	Cache *cache.SearchCache

	// RebuildOnStartup replays the durable log during Startup.
	RebuildOnStartup bool

	Logger *slog.Logger
}

// Service owns the spatial index, the content map and the durable log and
// keeps them consistent. The host serializes calls; Service does no
// locking of its own.
type Service struct {
	dim        int
	hasher     port.ContentHasher
	index      port.SpatialIndex
	contents   port.ContentMap
	log        *durablelog.Log
	storage    port.Storage
	authorizer port.Authorizer
	random     io.Reader
	cache      *cache.SearchCache
	rebuild    bool
	logger     *slog.Logger

	snap        domain.Snapshot
	initialized bool
}

// NewService creates a service over storage. The in-memory structures
// start empty.
func NewService(storage port.Storage, opts Options) *Service {
	dim := opts.Dimension
	if dim <= 0 {
		dim = domain.DefaultDimension
	}
	s := &Service{
		dim:        dim,
		hasher:     opts.Hasher,
		index:      opts.Index,
		contents:   opts.Contents,
		log:        durablelog.New(storage.Log()),
		storage:    storage,
		authorizer: opts.Authorizer,
		random:     opts.Random,
		cache:      opts.Cache,
		rebuild:    opts.RebuildOnStartup,
		logger:     opts.Logger,
	}
	if s.hasher == nil {
		s.hasher = hasher.NewXXHasher()
	}
	if s.index == nil {
		s.index = kdtree.New(dim)
	}
	if s.contents == nil {
		s.contents = memstore.NewContentMap()
	}
	if s.authorizer == nil {
		s.authorizer = OwnerGuard{}
	}
	if s.random == nil {
		s.random = NoopRandom{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Dimension() int {
	return s.dim
}

// Log exposes the durable log for audit reads.
func (s *Service) Log() *durablelog.Log {
	return s.log
}

// Add indexes doc and appends it to the durable log. The in-memory
// structures are updated first; if the append fails they are restored and
// the error is returned.
func (s *Service) Add(ctx context.Context, doc domain.Document) error {
	if err := validate(doc.Embedding); err != nil {
		return err
	}
	vec := domain.Normalize(doc.Embedding, s.dim)
	id := s.hasher.Hash(doc.Content)

	prev, hadPrev := s.contents.Get(id)
	if err := s.insert(vec, id, doc.Content); err != nil {
		return err
	}

	pos, err := s.log.Append(ctx, doc)
	if err != nil {
		s.undoInsert(vec, id, prev, hadPrev)
		return fmt.Errorf("add aborted: %w", err)
	}

	s.invalidate()
	s.logger.Debug("document added", "id", id, "position", pos, "points", s.index.Len())
	return nil
}

// Search returns the content of up to k documents nearest to query,
// nearest first. Identifiers without content are skipped, so fewer than k
// results may come back. The result is never nil.
func (s *Service) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if err := validate(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}
	vec := domain.Normalize(query, s.dim)

	if s.cache != nil {
		if results, hit := s.cache.Get(vec, k); hit {
			return results, nil
		}
	}

	neighbors, err := s.index.NearestN(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		content, ok := s.contents.Get(n.ID)
		if !ok {
			s.logger.Debug("skipping dangling identifier", "id", n.ID)
			continue
		}
		results = append(results, domain.SearchResult{Content: content})
	}

	if s.cache != nil {
		s.cache.Put(vec, k, results)
	}
	return results, nil
}

// Delete removes the points carrying doc's identifier at doc's normalized
// embedding, and the identifier's content. The durable log is untouched.
func (s *Service) Delete(ctx context.Context, doc domain.Document) error {
	if err := validate(doc.Embedding); err != nil {
		return err
	}
	vec := domain.Normalize(doc.Embedding, s.dim)
	id := s.hasher.Hash(doc.Content)

	removed, err := s.index.Remove(vec, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	s.contents.Remove(id)

	s.invalidate()
	s.logger.Debug("document deleted", "id", id, "points_removed", removed)
	return nil
}

// Size returns the number of distinct identifiers with content.
func (s *Service) Size() int {
	return s.contents.Len()
}

// Points returns the number of points in the spatial index, which may
// exceed Size when identical documents were added more than once.
func (s *Service) Points() int {
	return s.index.Len()
}

// RebuildFromLog discards the in-memory index and content map and replays
// every durable record into them. progress, if non-nil, is called after
// each record with the number replayed and the log length at the start.
func (s *Service) RebuildFromLog(ctx context.Context, progress func(done, total uint64)) (uint64, error) {
	total, err := s.log.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild: read log length: %w", err)
	}

	s.index.Reset()
	s.contents.Reset()
	s.invalidate()

	var done uint64
	for rec, err := range s.log.All(ctx) {
		if err != nil {
			return done, fmt.Errorf("rebuild: %w", err)
		}
		doc := rec.Document
		if err := validate(doc.Embedding); err != nil {
			s.logger.Warn("skipping unreadable log record", "position", rec.Position, "error", err)
			continue
		}
		vec := domain.Normalize(doc.Embedding, s.dim)
		if err := s.insert(vec, s.hasher.Hash(doc.Content), doc.Content); err != nil {
			return done, fmt.Errorf("rebuild: record %d: %w", rec.Position, err)
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	s.logger.Info("index rebuilt from log", "records", done, "documents", s.contents.Len())
	return done, nil
}

func (s *Service) insert(vec []float32, id domain.ID, content string) error {
	s.contents.Insert(id, content)
	if err := s.index.Add(vec, id); err != nil {
		return fmt.Errorf("index add failed: %w", err)
	}
	return nil
}

// undoInsert reverses a single insert of (vec, id). Earlier duplicates
// keep their place in insertion order.
func (s *Service) undoInsert(vec []float32, id domain.ID, prev string, hadPrev bool) {
	if removed, err := s.index.RemoveLatest(vec, id); err != nil || !removed {
		s.logger.Error("rollback left index point in place", "id", id, "removed", removed, "error", err)
	}
	if hadPrev {
		s.contents.Insert(id, prev)
	} else {
		s.contents.Remove(id)
	}
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// validate rejects embeddings that cannot be ranked.
func validate(v []float32) error {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("%w: element %d is %v", domain.ErrMalformedEmbedding, i, f)
		}
	}
	return nil
}
