package kvstore

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/langassess/langassess/internal/config"
	"github.com/langassess/langassess/internal/db"
)

// Open builds the backend selected by cfg.StoreDriver. The returned closer
// is never nil. With StoreNone the Store is nil, i.e. storage unavailable.
func Open(ctx context.Context, cfg config.Config) (Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite, config.StorePostgres:
		drv := db.Driver(cfg.StoreDriver)
		dbh, err := db.Open(ctx, drv, cfg.StoreDSN)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("kvstore: open %s: %w", drv, err)
		}
		s := NewSQLStore(dbh, drv)
		return s, s, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nopCloser{}, fmt.Errorf("kvstore: redis ping: %w", err)
		}
		s := NewRedisStore(client, cfg.RedisPrefix)
		return s, s, nil
	case config.StoreMemory:
		return NewMemoryStore(), nopCloser{}, nil
	case config.StoreNone, "":
		return nil, nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("kvstore: unsupported driver %q", cfg.StoreDriver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
