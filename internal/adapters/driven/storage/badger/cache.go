// Package badger provides a driven.ContextCache backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure ContextCache implements the interface.
var _ driven.ContextCache = (*ContextCache)(nil)

// DefaultTTL bounds how long a cached context survives without a reindex.
const DefaultTTL = 24 * time.Hour

// keyPrefix namespaces cache entries so Invalidate can drop them in one call.
var keyPrefix = []byte("ctx/")

// Config holds configuration for the cache database.
type Config struct {
	// Path is the directory for persistent storage.
	// Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// TTL expires entries; zero disables expiry.
	TTL time.Duration

	// Logger receives badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// DefaultConfig returns a persistent configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{
		Path: path,
		TTL:  DefaultTTL,
	}
}

// InMemoryConfig returns a configuration for an in-memory cache.
func InMemoryConfig() Config {
	return Config{
		InMemory: true,
		TTL:      DefaultTTL,
	}
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// ContextCache stores serialised automation contexts in BadgerDB.
type ContextCache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache database.
func Open(cfg Config) (*ContextCache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &ContextCache{db: db, ttl: cfg.TTL}, nil
}

func cacheKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

// Get returns the value stored under key.
func (c *ContextCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return value, true, nil
}

// Set stores value under key.
func (c *ContextCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := badger.NewEntry(cacheKey(key), value)
	if c.ttl > 0 {
		entry = entry.WithTTL(c.ttl)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Invalidate drops every cached entry.
func (c *ContextCache) Invalidate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.db.DropPrefix(keyPrefix); err != nil {
		return fmt.Errorf("drop cache entries: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *ContextCache) Close() error {
	return c.db.Close()
}
