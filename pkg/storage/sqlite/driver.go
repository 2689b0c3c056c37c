// Package sqlite provides a storage.Driver persisted to a SQLite database file,
// so that durable state survives a sequencer restart.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/sequencer/pkg/storage"
)

const (
	// DefaultCacheSize is the number of records kept in the read cache.
	DefaultCacheSize = 8192

	schema = `CREATE TABLE IF NOT EXISTS records (
	key    TEXT PRIMARY KEY NOT NULL,
	record BLOB NOT NULL
)`
)

var _ storage.Driver = (*Driver)(nil)

// Driver is a storage.Driver backed by SQLite.
// Reads go through an LRU record cache that is updated on every Put and Delete.
// A read miss only fills the cache when no write finished while it was
// selecting, so a slow reader never caches a record older than the writer's.
type Driver struct {
	db    *sql.DB
	cache cache.Cacher

	mu     sync.Mutex
	writes uint64

	afterSelect func()
}

// NewDriver opens (or creates) the SQLite database at path.
// Use ":memory:" for a private in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	return NewDriverWithCache(ctx, path, DefaultCacheSize)
}

// NewDriverWithCache is NewDriver with an explicit cache size. A size of 0
// disables caching.
func NewDriverWithCache(ctx context.Context, path string, cacheSize int) (*Driver, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	// Every connection to ":memory:" opens a distinct database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}

	d := &Driver{db: db}
	if cacheSize > 0 {
		d.cache = &cache.LRU{Size: cacheSize}
	}
	return d, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
}

func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	var epoch uint64
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			return clone(cached.([]byte)), nil
		}
		epoch = d.epoch()
	}

	var record []byte
	err := d.db.QueryRowContext(ctx, "SELECT record FROM records WHERE key = ?", key).Scan(&record)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, storage.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("select record %s: %w", key, translate(err))
	}

	if d.afterSelect != nil {
		d.afterSelect()
	}
	if d.cache != nil {
		d.mu.Lock()
		if d.writes == epoch {
			d.cache.Put(key, clone(record))
		}
		d.mu.Unlock()
	}
	return record, nil
}

func (d *Driver) Put(ctx context.Context, key string, record []byte) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO records (key, record) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET record = excluded.record`,
		key, record,
	)
	if err != nil {
		d.written(key, nil)
		return fmt.Errorf("upsert record %s: %w", key, translate(err))
	}
	d.written(key, record)
	return nil
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM records WHERE key = ?", key)
	d.written(key, nil)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", key, translate(err))
	}
	return nil
}

func (d *Driver) epoch() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// written records a finished write of key, caching record or evicting the
// key when record is nil.
func (d *Driver) written(key string, record []byte) {
	if d.cache == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	if record == nil {
		d.cache.Evict(key)
		return
	}
	d.cache.Put(key, clone(record))
}

func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", translate(err))
	}
	return n, nil
}

func (d *Driver) Close() error {
	if d.cache != nil {
		d.cache.Flush()
	}
	return d.db.Close()
}

func translate(err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return storage.ErrClosed
	}
	return err
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
