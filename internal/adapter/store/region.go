package store

import "encoding/binary"

func positionKey(pos uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, pos)
	return k
}

// regionSlice returns the bytes of region starting at off, or nil when off
// lies outside it.
func regionSlice(region []byte, off int64) []byte {
	if off < 0 || off >= int64(len(region)) {
		return nil
	}
	return region[off:]
}

// overlay returns a new buffer holding region with p written at off,
// growing it when needed. Bytes beyond the write are preserved.
func overlay(region, p []byte, off int64) []byte {
	size := int64(len(region))
	if end := off + int64(len(p)); end > size {
		size = end
	}
	out := make([]byte, size)
	copy(out, region)
	copy(out[off:], p)
	return out
}
