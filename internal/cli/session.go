package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"vecdb/config"
	"vecdb/internal/adapter/cache"
	"vecdb/internal/adapter/embedding"
	"vecdb/internal/adapter/store"
	"vecdb/internal/domain"
	"vecdb/internal/usecase"
)

// session is one process lifetime of the store: opening it runs the
// startup boundary and closing it runs the shutdown boundary.
type session struct {
	store  store.Backend
	svc    *usecase.Service
	closed bool
}

// openBackend is replaced in tests.
var openBackend = store.Open

func openSession(ctx context.Context) (*session, error) {
	cfg := GetConfig()
	dir := GetRootDir()

	if cfg.Store.Backend != config.BackendMemory {
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create .vecdb directory: %w", err)
		}
	}

	st, err := openBackend(cfg, dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := migrate(st, cfg); err != nil {
		st.Close()
		return nil, err
	}

	opts := usecase.Options{
		Dimension:        cfg.Store.Dimension,
		RebuildOnStartup: cfg.Startup.RebuildFromLog || rebuildArg,
		Logger:           logger,
	}
	if cfg.Search.CacheSize > 0 {
		opts.Cache = cache.NewSearchCache(cfg.Search.CacheSize)
	}
	svc := usecase.NewService(st, opts)

	if err := svc.Startup(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &session{store: st, svc: svc}, nil
}

func migrate(st store.Backend, cfg *config.Config) error {
	result, err := store.CheckMigration(st, cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if result.Incompatible {
		return fmt.Errorf("cannot open store: %s", result.Reason)
	}
	if result.ConfigChanged {
		logger.Warn("store configuration changed; logged documents will be re-normalized on rebuild",
			"reason", result.Reason, "dimension", cfg.Store.Dimension)
	}
	if result.NeedsMigration || result.ConfigChanged {
		logger.Debug("updating schema info", "from", result.OldVersion, "to", result.NewVersion)
		if err := store.Migrate(st, cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close runs the shutdown boundary and closes the store. Later calls are
// no-ops.
func (s *session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.svc.Shutdown(ctx)
	return errors.Join(err, s.store.Close())
}

// closeInto closes s and joins the result into *errp, for use with defer.
func (s *session) closeInto(ctx context.Context, errp *error) {
	*errp = errors.Join(*errp, s.Close(ctx))
}

// callerIdentity resolves who is invoking the command.
func callerIdentity() domain.Identity {
	if callerFlag != "" {
		return domain.Identity(callerFlag)
	}
	if v := os.Getenv("VECDB_CALLER"); v != "" {
		return domain.Identity(v)
	}
	if u, err := user.Current(); err == nil {
		return domain.Identity(u.Username)
	}
	return "anonymous"
}

// parseEmbedding reads a comma or whitespace separated list of numbers,
// optionally wrapped in brackets.
func parseEmbedding(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	out := make([]float32, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d %q is not a number", domain.ErrMalformedEmbedding, i, f)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// embedText computes an embedding for text with the configured provider.
func embedText(ctx context.Context, text string) ([]float32, error) {
	cfg := GetConfig()
	e, err := embedding.New(cfg.Embedding, cfg.Store.Dimension)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.New("no embedding given and no embedding.provider configured")
	}
	out, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding with %s failed: %w", e.ModelName(), err)
	}
	logger.Debug("embedded text", "model", e.ModelName(), "dims", len(out[0]))
	return out[0], nil
}
