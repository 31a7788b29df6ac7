package store

import (
	"fmt"
	"log/slog"

	"vecdb/config"
	"vecdb/internal/port"
)

// Backend is durable storage that also records its schema info.
type Backend interface {
	port.Storage
	SchemaStore
}

// Open opens the backend selected by cfg for the store rooted at dir.
func Open(cfg *config.Config, dir string, logger *slog.Logger) (Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendBolt, "":
		return NewBoltStore(config.DataPath(cfg, dir))
	case config.BackendBadger:
		return NewBadgerStore(BadgerOptions{Dir: config.DataPath(cfg, dir), Logger: logger})
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Store.Backend)
	}
}
