package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbrg/gds/pkg/config"
)

// DefaultDir returns the file cache directory: $XDG_CACHE_HOME/gds, or
// ~/.cache/gds.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "gds"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "gds"), nil
}

// Open builds the backend selected by cfg. The returned cache reports to
// the observability cache hooks.
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case config.BackendNone:
		c = NewNullCache()
	case config.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			if dir, err = DefaultDir(); err != nil {
				return nil, err
			}
		}
		c, err = NewFileCache(dir)
	case config.BackendRedis:
		c, err = NewRedisCache(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "gds:",
		})
	case config.BackendMongo:
		c, err = NewMongoCache(ctx, MongoOptions{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrumented(c), nil
}
