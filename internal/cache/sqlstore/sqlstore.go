// Package sqlstore is a durable cache substrate on PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/pressly/goose/v3"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

const layer = "sql"

const (
	queryUpsert = `INSERT INTO enrichment_cache (cache_key, entity_id, content_type, payload, stored_at, ttl_ns)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (cache_key) DO UPDATE SET
    entity_id = excluded.entity_id,
    content_type = excluded.content_type,
    payload = excluded.payload,
    stored_at = excluded.stored_at,
    ttl_ns = excluded.ttl_ns`
	queryGet    = `SELECT cache_key, entity_id, content_type, payload, stored_at, ttl_ns FROM enrichment_cache WHERE cache_key = ?`
	queryDelete = `DELETE FROM enrichment_cache WHERE cache_key = ?`
	queryClear  = `DELETE FROM enrichment_cache`
	queryScan   = `SELECT cache_key, entity_id, content_type, payload, stored_at, ttl_ns FROM enrichment_cache ORDER BY stored_at`
)

type row struct {
	CacheKey    string `db:"cache_key"`
	EntityID    string `db:"entity_id"`
	ContentType string `db:"content_type"`
	Payload     string `db:"payload"`
	StoredAt    int64  `db:"stored_at"`
	TTL         int64  `db:"ttl_ns"`
}

func (r row) entry() (types.CacheEntry, error) {
	ct, err := types.ParseContentType(r.ContentType)
	if err != nil {
		return types.CacheEntry{}, err
	}
	return types.CacheEntry{
		Key:      types.CacheKey{EntityID: r.EntityID, Type: ct},
		Payload:  r.Payload,
		StoredAt: time.Unix(0, r.StoredAt),
		TTL:      time.Duration(r.TTL),
	}, nil
}

// Store keeps cache entries in the enrichment_cache table.
type Store struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger

	upsert string
	get    string
	del    string
	scan   string

	closed atomic.Bool
}

// Open connects with cfg.Driver and cfg.DSN, applies migrations when
// cfg.Migrate is set and returns the store.
func Open(ctx context.Context, cfg config.SQLConfig, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN.Value())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite3" {
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		} else {
			db.SetMaxOpenConns(10)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		} else {
			db.SetConnMaxLifetime(time.Hour)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", cfg.Driver, err)
	}

	s, err := New(ctx, db, cfg.Migrate, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The store takes ownership of db.
func New(ctx context.Context, db *sqlx.DB, migrate bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:     db,
		driver: db.DriverName(),
		logger: logger.With("component", "sql-store", "driver", db.DriverName()),
		upsert: db.Rebind(queryUpsert),
		get:    db.Rebind(queryGet),
		del:    db.Rebind(queryDelete),
		scan:   db.Rebind(queryScan),
	}

	if migrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func dialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return goose.DialectPostgres, nil
	case "sqlite3":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("sqlstore: no migration dialect for driver %q", driver)
	}
}

// Migrate applies every pending embedded migration.
func (s *Store) Migrate(ctx context.Context) error {
	dialect, err := dialectFor(s.driver)
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("sqlstore: migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	for _, r := range results {
		s.logger.Info("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Name returns the substrate name.
func (s *Store) Name() string {
	return s.driver
}

// IsAvailable returns true if the store is not closed.
func (s *Store) IsAvailable() bool {
	return !s.closed.Load()
}

// Put upserts an entry.
func (s *Store) Put(ctx context.Context, entry types.CacheEntry) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	key := entry.Key.String()
	_, err := s.db.ExecContext(ctx, s.upsert,
		key,
		entry.Key.EntityID,
		entry.Key.Type.String(),
		entry.Payload,
		entry.StoredAt.UnixNano(),
		int64(entry.TTL),
	)
	if err != nil {
		return types.NewCacheError("Put", key, layer, err)
	}
	return nil
}

// Get reads an entry.
func (s *Store) Get(ctx context.Context, key string) (types.CacheEntry, error) {
	if s.closed.Load() {
		return types.CacheEntry{}, types.ErrClosed
	}

	var r row
	if err := s.db.GetContext(ctx, &r, s.get, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.CacheEntry{}, types.ErrCacheMiss
		}
		return types.CacheEntry{}, types.NewCacheError("Get", key, layer, err)
	}

	entry, err := r.entry()
	if err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, layer, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err))
	}
	return entry, nil
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, s.del, key); err != nil {
		return types.NewCacheError("Delete", key, layer, err)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, queryClear); err != nil {
		return types.NewCacheError("Clear", "", layer, err)
	}
	return nil
}

// Scan visits entries oldest first. Rows with an unknown content type are skipped.
func (s *Store) Scan(ctx context.Context, fn func(types.CacheEntry) bool) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	rows, err := s.db.QueryxContext(ctx, s.scan)
	if err != nil {
		return types.NewCacheError("Scan", "", layer, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r row
		if err := rows.StructScan(&r); err != nil {
			return types.NewCacheError("Scan", "", layer, err)
		}
		entry, err := r.entry()
		if err != nil {
			s.logger.Debug("Skipping unreadable row", "key", r.CacheKey, "error", err)
			continue
		}
		if !fn(entry) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return types.NewCacheError("Scan", "", layer, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
