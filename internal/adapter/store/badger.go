package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"vecdb/internal/port"
)

var (
	prefixLog   = []byte("log/")
	keyLogCount = []byte("log!count")
	keyMeta     = []byte("meta/region")
	keySchema   = []byte("stats/schema")
)

// BadgerStore is durable storage backed by BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ port.Storage = (*BadgerStore)(nil)

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	Logger *slog.Logger
}

func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger store: Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger.With("component", "badger")})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Log() port.LogRegion {
	return badgerLog{db: s.db}
}

func (s *BadgerStore) Meta() port.MetaRegion {
	return badgerMeta{db: s.db}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func logKey(pos uint64) []byte {
	return append(append([]byte{}, prefixLog...), positionKey(pos)...)
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

type badgerLog struct {
	db *badger.DB
}

func readCount(txn *badger.Txn) (uint64, error) {
	v, err := getValue(txn, keyLogCount)
	if err != nil || v == nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("log counter has %d bytes", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (l badgerLog) Append(ctx context.Context, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var pos uint64
	err := l.db.Update(func(txn *badger.Txn) error {
		n, err := readCount(txn)
		if err != nil {
			return err
		}
		pos = n
		if err := txn.Set(logKey(pos), data); err != nil {
			return err
		}
		return txn.Set(keyLogCount, positionKey(pos+1))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append log record: %w", err)
	}
	return pos, nil
}

func (l badgerLog) Len(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n uint64
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = readCount(txn)
		return err
	})
	return n, err
}

func (l badgerLog) Scan(ctx context.Context, from uint64) iter.Seq2[port.Slot, error] {
	return func(yield func(port.Slot, error) bool) {
		err := l.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefixLog
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(logKey(from)); it.ValidForPrefix(prefixLog); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				data, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				pos := binary.BigEndian.Uint64(item.Key()[len(prefixLog):])
				if !yield(port.Slot{Position: pos, Data: data}, nil) {
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

type badgerMeta struct {
	db *badger.DB
}

func (m badgerMeta) ReadAt(p []byte, off int64) (int, error) {
	var n int
	err := m.db.View(func(txn *badger.Txn) error {
		region, err := getValue(txn, keyMeta)
		if err != nil {
			return err
		}
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

func (m badgerMeta) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	err := m.db.Update(func(txn *badger.Txn) error {
		region, err := getValue(txn, keyMeta)
		if err != nil {
			return err
		}
		return txn.Set(keyMeta, overlay(region, p, off))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write metadata region: %w", err)
	}
	return len(p), nil
}

// badgerLogger routes badger's printf-style logging through slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
