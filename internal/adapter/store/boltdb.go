package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"iter"

	"go.etcd.io/bbolt"
	"vecdb/internal/port"
)

var (
	bucketLog   = []byte("log")
	bucketMeta  = []byte("meta")
	bucketStats = []byte("stats")
	keyRegion   = []byte("region")
)

// BoltStore is durable storage backed by a single BoltDB file. The log
// region lives in the "log" bucket keyed by big-endian position and the
// metadata region is a single value in the "meta" bucket.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.Storage = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketLog, bucketMeta, bucketStats}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Log() port.LogRegion {
	return boltLog{db: s.db}
}

func (s *BoltStore) Meta() port.MetaRegion {
	return boltMeta{db: s.db}
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltLog struct {
	db *bbolt.DB
}

func (l boltLog) Append(ctx context.Context, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var pos uint64
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLog)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		pos = seq - 1
		return b.Put(positionKey(pos), data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append log record: %w", err)
	}
	return pos, nil
}

func (l boltLog) Len(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n uint64
	err := l.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketLog).Sequence()
		return nil
	})
	return n, err
}

// Scan holds a read transaction while iterating; callers must not write to
// the store until the iteration ends.
func (l boltLog) Scan(ctx context.Context, from uint64) iter.Seq2[port.Slot, error] {
	return func(yield func(port.Slot, error) bool) {
		err := l.db.View(func(tx *bbolt.Tx) error {
			c := tx.Bucket(bucketLog).Cursor()
			for k, v := c.Seek(positionKey(from)); k != nil; k, v = c.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Values are only valid for the life of the transaction.
				data := make([]byte, len(v))
				copy(data, v)
				if !yield(port.Slot{Position: binary.BigEndian.Uint64(k), Data: data}, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(port.Slot{}, fmt.Errorf("failed to scan log: %w", err))
		}
	}
}

type boltMeta struct {
	db *bbolt.DB
}

func (m boltMeta) ReadAt(p []byte, off int64) (int, error) {
	var n int
	err := m.db.View(func(tx *bbolt.Tx) error {
		region := tx.Bucket(bucketMeta).Get(keyRegion)
		n = copy(p, regionSlice(region, off))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m boltMeta) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	err := m.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		region := overlay(b.Get(keyRegion), p, off)
		return b.Put(keyRegion, region)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write metadata region: %w", err)
	}
	return len(p), nil
}
