package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavishGent/linernotes/internal/cache/dynamostore"
	"github.com/LavishGent/linernotes/internal/cache/sqlstore"
	"github.com/LavishGent/linernotes/internal/config"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*DisabledStore)(nil)
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*dynamostore.Store)(nil)

	_ AvailabilityChecker = (*RedisStore)(nil)
)

// OpenStore builds the substrate selected by cfg.Substrate.
func OpenStore(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Substrate {
	case "", "memory":
		return NewMemoryStore(cfg.Memory, cfg.MaxEntries, logger)
	case "redis":
		return NewRedisStore(cfg.Redis, logger)
	case "postgres", "pgx", "sqlite3":
		sqlCfg := cfg.SQL
		sqlCfg.Driver = cfg.Substrate
		return sqlstore.Open(ctx, sqlCfg, logger)
	case "dynamodb":
		return dynamostore.NewFromConfig(ctx, cfg.DynamoDB, logger)
	case "disabled":
		return NewDisabledStore(), nil
	default:
		return nil, fmt.Errorf("cache: unknown substrate %q", cfg.Substrate)
	}
}
