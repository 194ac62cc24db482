// Package lookupcache persists canonical lookup results between runs so
// repeated label phrases skip the knowledge graph entirely.
package lookupcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"wildlens/internal/recognition"
)

// Cache is a SQLite-backed canonical lookup cache with TTL expiry. A nil
// Cache is a no-op, so callers need no guards when caching is disabled.
type Cache struct {
	db   *sql.DB
	lock *flock.Flock
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// ErrLocked is returned when another process holds the cache lock.
var ErrLocked = errors.New("lookup cache locked by another process")

// Open initializes or connects to the cache database. The flock next to the
// database file prevents concurrent writers from separate processes; callers
// that see ErrLocked should run with caching disabled.
func Open(path string, ttl time.Duration, opts ...Option) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("lookup cache path required")
	}
	if ttl <= 0 {
		return nil, errors.New("lookup cache ttl must be positive")
	}

	fileLock := flock.New(lockPath(path))
	ok, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = fileLock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, lock: fileLock, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(cache)
	}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = fileLock.Unlock()
		return nil, err
	}
	return cache, nil
}

func lockPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), filepath.Base(dbPath)+".lock")
}

func (c *Cache) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS canonical_lookups (
		query TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init cache schema: %w", err)
	}
	return nil
}

// Get returns the cached canonical record for a query phrase. Expired and
// missing entries both report ok=false.
func (c *Cache) Get(ctx context.Context, query string) (recognition.Canonical, bool) {
	if c == nil {
		return recognition.Canonical{}, false
	}
	key := normalizeKey(query)
	if key == "" {
		return recognition.Canonical{}, false
	}

	var payload string
	var createdAt int64
	row := c.db.QueryRowContext(ctx, `SELECT payload, created_at FROM canonical_lookups WHERE query = ?`, key)
	if err := row.Scan(&payload, &createdAt); err != nil {
		return recognition.Canonical{}, false
	}
	if c.now().Unix()-createdAt > int64(c.ttl.Seconds()) {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM canonical_lookups WHERE query = ?`, key)
		return recognition.Canonical{}, false
	}

	var canonical recognition.Canonical
	if err := json.Unmarshal([]byte(payload), &canonical); err != nil {
		return recognition.Canonical{}, false
	}
	return canonical, true
}

// Put stores a canonical record under the query phrase, replacing any
// previous entry.
func (c *Cache) Put(ctx context.Context, query string, canonical recognition.Canonical) error {
	if c == nil {
		return nil
	}
	key := normalizeKey(query)
	if key == "" {
		return errors.New("empty cache key")
	}
	payload, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("encode canonical: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO canonical_lookups (query, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, string(payload), c.now().Unix())
	if err != nil {
		return fmt.Errorf("store canonical: %w", err)
	}
	return nil
}

// Prune removes expired entries and reports how many were deleted.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	cutoff := c.now().Unix() - int64(c.ttl.Seconds())
	result, err := c.db.ExecContext(ctx, `DELETE FROM canonical_lookups WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the database handle and the process lock.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	dbErr := c.db.Close()
	lockErr := c.lock.Unlock()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

func normalizeKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
