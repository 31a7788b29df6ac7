package store

import (
	"context"
	"io"
	"iter"

	"vecdb/internal/port"
)

// MemoryStore keeps both regions in process memory. It satisfies the
// storage contract within one process lifetime and is used in tests and
// for throwaway stores.
type MemoryStore struct {
	slots  [][]byte
	region []byte
	schema *SchemaInfo

	// Capacity, when positive, limits the number of log slots. Appends
	// beyond it fail with ErrCapacity.
	Capacity int
}

var _ port.Storage = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Log() port.LogRegion {
	return memoryLog{s}
}

func (s *MemoryStore) Meta() port.MetaRegion {
	return memoryMeta{s}
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryLog struct {
	s *MemoryStore
}

func (l memoryLog) Append(ctx context.Context, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if l.s.Capacity > 0 && len(l.s.slots) >= l.s.Capacity {
		return 0, ErrCapacity
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	l.s.slots = append(l.s.slots, cp)
	return uint64(len(l.s.slots) - 1), nil
}

func (l memoryLog) Len(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return uint64(len(l.s.slots)), nil
}

func (l memoryLog) Scan(ctx context.Context, from uint64) iter.Seq2[port.Slot, error] {
	return func(yield func(port.Slot, error) bool) {
		for pos := from; pos < uint64(len(l.s.slots)); pos++ {
			if err := ctx.Err(); err != nil {
				yield(port.Slot{}, err)
				return
			}
			data := make([]byte, len(l.s.slots[pos]))
			copy(data, l.s.slots[pos])
			if !yield(port.Slot{Position: pos, Data: data}, nil) {
				return
			}
		}
	}
}

type memoryMeta struct {
	s *MemoryStore
}

func (m memoryMeta) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, regionSlice(m.s.region, off))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m memoryMeta) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrShortWrite
	}
	m.s.region = overlay(m.s.region, p, off)
	return len(p), nil
}
