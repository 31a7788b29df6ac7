package port

import (
	"context"
	"io"
	"iter"
)

// Slot is one record of the append region.
type Slot struct {
	Position uint64
	Data     []byte
}

// LogRegion is the append-capable part of durable storage.
type LogRegion interface {
	// Append writes data to the next slot and returns its position.
	// Positions start at 0 and grow by one per call.
	Append(ctx context.Context, data []byte) (uint64, error)

	// Len returns the number of slots written so far.
	Len(ctx context.Context) (uint64, error)

	// Scan yields slots in position order starting at from.
	Scan(ctx context.Context, from uint64) iter.Seq2[Slot, error]
}

// MetaRegion is the small fixed region that holds the snapshot. Reading
// past the written bytes returns io.EOF.
type MetaRegion interface {
	io.ReaderAt
	io.WriterAt
}

// Storage is the durable paged storage supplied by the host. The log
// region and the metadata region never overlap.
type Storage interface {
	Log() LogRegion
	Meta() MetaRegion
	Close() error
}
