package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"summit/internal/backend"
	"summit/internal/backend/memory"
	"summit/internal/backend/postgres"
	"summit/internal/backend/rest"
	"summit/internal/backend/sqlite"
	"summit/internal/blob"
	"summit/internal/config"
	"summit/internal/logging"
)

// Backend is the opened data backend.
type Backend struct {
	Client backend.Client
	// Objects serves uploads kept on local disk. It is nil for the rest
	// driver, whose uploads are served by the hosted service.
	Objects *blob.Store
	closers []func()
}

// Close releases connections held by the backend.
func (b *Backend) Close() {
	if b == nil {
		return
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// OpenBackend connects the driver selected in cfg.
func OpenBackend(ctx context.Context, cfg config.Config, logger logging.Logger) (*Backend, error) {
	logger = logging.OrNop(logger)
	switch cfg.Backend.Driver {
	case config.DriverREST:
		client, err := rest.New(rest.Config{
			BaseURL:          cfg.Backend.URL,
			APIKey:           cfg.Backend.APIKey,
			Timeout:          cfg.Backend.Timeout,
			RateLimitRPS:     cfg.Backend.RateLimitRPS,
			RateLimitBurst:   cfg.Backend.RateLimitBurst,
			MaxResponseBytes: cfg.Backend.MaxResponseBytes,
		}, rest.WithLogger(logging.NewComponentLogger("RestBackend")))
		if err != nil {
			return nil, err
		}
		logger.Info("Using hosted backend at %s", cfg.Backend.URL)
		return &Backend{Client: client}, nil

	case config.DriverPostgres:
		objects, err := openObjects(cfg)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.Backend.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store, err := postgres.New(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		logger.Info("Using postgres backend with uploads in %s", objects.Root())
		return &Backend{
			Client:  backend.Compose(store, objects),
			Objects: objects,
			closers: []func(){pool.Close},
		}, nil

	case config.DriverSQLite:
		objects, err := openObjects(cfg)
		if err != nil {
			return nil, err
		}
		path := blob.ResolvePath(cfg.Backend.DSN, config.DefaultSQLitePath)
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Info("Using sqlite backend at %s with uploads in %s", path, objects.Root())
		return &Backend{
			Client:  backend.Compose(store, objects),
			Objects: objects,
			closers: []func(){func() {
				if err := store.Close(); err != nil {
					logger.Warn("Close sqlite: %v", err)
				}
			}},
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory backend; content is lost on restart")
		return &Backend{Client: memory.New(memory.WithBaseURL(cfg.Server.PublicURL))}, nil
	}
	return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
}

func openObjects(cfg config.Config) (*blob.Store, error) {
	store, err := blob.New(blob.ResolvePath(cfg.Storage.Dir, config.DefaultStorageDir), cfg.Server.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("open upload storage: %w", err)
	}
	return store, nil
}

// errNoBackend guards Build against a nil backend.
var errNoBackend = errors.New("backend is not open")
