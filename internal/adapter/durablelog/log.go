// Package durablelog records every inserted document in the append region
// of durable storage. Records are msgpack encoded, one per slot, and are
// never rewritten or removed.
package durablelog

import (
	"context"
	"fmt"
	"iter"

	"github.com/vmihailenco/msgpack/v5"
	"vecdb/internal/domain"
	"vecdb/internal/port"
)

type Log struct {
	region port.LogRegion
}

func New(region port.LogRegion) *Log {
	return &Log{region: region}
}

// Append writes the full document and returns its position. The embedding
// is stored as supplied, before any normalization.
func (l *Log) Append(ctx context.Context, doc domain.Document) (uint64, error) {
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("durablelog: encode document: %w", err)
	}
	pos, err := l.region.Append(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("durablelog: append: %w", err)
	}
	return pos, nil
}

func (l *Log) Len(ctx context.Context) (uint64, error) {
	return l.region.Len(ctx)
}

// All yields every record in insertion order. Each call starts a fresh
// pass over the log.
func (l *Log) All(ctx context.Context) iter.Seq2[domain.LogRecord, error] {
	return l.From(ctx, 0)
}

// From yields records starting at position pos.
func (l *Log) From(ctx context.Context, pos uint64) iter.Seq2[domain.LogRecord, error] {
	return func(yield func(domain.LogRecord, error) bool) {
		for slot, err := range l.region.Scan(ctx, pos) {
			if err != nil {
				yield(domain.LogRecord{}, err)
				return
			}
			var doc domain.Document
			if err := msgpack.Unmarshal(slot.Data, &doc); err != nil {
				yield(domain.LogRecord{}, fmt.Errorf("durablelog: decode record %d: %w", slot.Position, err))
				return
			}
			if !yield(domain.LogRecord{Position: slot.Position, Document: doc}, nil) {
				return
			}
		}
	}
}
