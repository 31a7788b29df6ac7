// Package snapshot persists store metadata in the fixed metadata region.
//
// Layout, starting at offset 0:
//
//	[4B little-endian length N] [N bytes msgpack-encoded domain.Snapshot]
//
// The region holds a single slot; each Serialize overwrites the previous
// snapshot. Bytes after the encoded snapshot are ignored.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"vecdb/internal/domain"
)

const headerSize = 4

// MaxSize bounds the encoded snapshot. A larger length prefix means the
// region does not hold a snapshot.
const MaxSize = 1 << 20

// Serialize writes snap to the metadata region.
func Serialize(w io.WriterAt, snap domain.Snapshot) error {
	body, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if len(body) > MaxSize {
		return fmt.Errorf("snapshot: encoded size %d exceeds %d", len(body), MaxSize)
	}

	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)

	if _, err := w.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	return nil
}

// Restore reads the snapshot from the metadata region. It returns
// domain.ErrNoSnapshot when nothing was ever written and wraps
// domain.ErrCorruptSnapshot when the region cannot be decoded.
func Restore(r io.ReaderAt) (domain.Snapshot, error) {
	var snap domain.Snapshot

	var header [headerSize]byte
	n, err := r.ReadAt(header[:], 0)
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return snap, domain.ErrNoSnapshot
	case n < headerSize:
		return snap, corrupt("short length prefix (%d bytes): %v", n, err)
	case err != nil && !errors.Is(err, io.EOF):
		return snap, fmt.Errorf("snapshot: read length prefix: %w", err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 || size > MaxSize {
		return snap, corrupt("invalid length %d", size)
	}

	body := make([]byte, size)
	n, err = r.ReadAt(body, headerSize)
	if n < len(body) {
		return snap, corrupt("read %d of %d bytes: %v", n, size, err)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return snap, fmt.Errorf("snapshot: read body: %w", err)
	}

	if err := msgpack.Unmarshal(body, &snap); err != nil {
		return domain.Snapshot{}, corrupt("decode: %v", err)
	}
	return snap, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}
