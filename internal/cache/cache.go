// Package cache provides a result-caching decorator for core.Conn, backed by an
// in-process LRU and Redis.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/coregx/sqlforge/internal/core"
	"github.com/coregx/sqlforge/internal/logger"
	"github.com/coregx/sqlforge/internal/tracer"
)

const (
	// DefaultPrefix namespaces cache keys in Redis.
	DefaultPrefix = "sqlforge:"
	// DefaultTTL is how long a cached result lives.
	DefaultTTL = 5 * time.Minute

	invalidateBatch = 100
)

// Options configures a caching Conn.
type Options struct {
	// Prefix is prepended to every Redis key. Defaults to DefaultPrefix.
	Prefix string
	// TTL applies to both tiers. Defaults to DefaultTTL.
	TTL time.Duration
	// LocalCapacity sizes the in-process tier. 0 disables it.
	LocalCapacity int
	// InvalidateOnWrite clears every cached result after a successful
	// non-SELECT statement.
	InvalidateOnWrite bool
	// Logger receives cache failures. Defaults to a NoopLogger.
	Logger logger.Logger
}

// Conn caches SELECT results of the wrapped Conn. Other statements pass through.
//
// Lookups try the local tier, then Redis. Concurrent misses for the same key
// share a single execution. Redis failures are logged and never returned: the
// wrapped Conn is used instead. Cached results are shared between callers and
// must not be modified.
type Conn struct {
	next   core.Conn
	client redis.UniversalClient
	local  *Local
	opts   Options
	logger logger.Logger
	group  singleflight.Group
}

// New wraps next. client may be nil, in which case only the local tier is used.
func New(next core.Conn, client redis.UniversalClient, opts Options) *Conn {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	c := &Conn{
		next:   next,
		client: client,
		opts:   opts,
		logger: opts.Logger,
	}
	if c.logger == nil {
		c.logger = &logger.NoopLogger{}
	}
	if opts.LocalCapacity > 0 {
		c.local = NewLocal(opts.LocalCapacity, opts.TTL)
	}
	return c
}

// Driver returns the wrapped Conn's driver.
func (c *Conn) Driver() string {
	return c.next.Driver()
}

// LocalStats returns statistics of the in-process tier, or zero Stats when it
// is disabled.
func (c *Conn) LocalStats() Stats {
	if c.local == nil {
		return Stats{}
	}
	return c.local.Stats()
}

// Query implements core.Conn.
func (c *Conn) Query(ctx context.Context, sql string, args []interface{}) (*core.Result, error) {
	if tracer.DetectOperation(sql) != "SELECT" {
		res, err := c.next.Query(ctx, sql, args)
		if err == nil && c.opts.InvalidateOnWrite {
			if ierr := c.Invalidate(ctx); ierr != nil {
				c.logger.Warn("cache invalidation failed", "error", ierr)
			}
		}
		return res, err
	}

	key, err := Key(c.opts.Prefix, sql, args)
	if err != nil {
		c.logger.Warn("cache key derivation failed", "sql", sql, "error", err)
		return c.next.Query(ctx, sql, args)
	}

	if res, ok := c.lookup(ctx, key); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		res, err := c.next.Query(ctx, sql, args)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Result), nil
}

func (c *Conn) lookup(ctx context.Context, key string) (*core.Result, bool) {
	if c.local != nil {
		if res, ok := c.local.Get(key); ok {
			return res, true
		}
	}
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}

	res, err := decode(data)
	if err != nil {
		c.logger.Warn("cache entry decode failed", "key", key, "error", err)
		return nil, false
	}
	if c.local != nil {
		c.local.Set(key, res)
	}
	return res, true
}

func (c *Conn) store(ctx context.Context, key string, res *core.Result) {
	if c.local != nil {
		c.local.Set(key, res)
	}
	if c.client == nil {
		return
	}

	data, err := msgpack.Marshal(res)
	if err != nil {
		c.logger.Warn("cache entry encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.opts.TTL).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes every cached result under the configured prefix.
func (c *Conn) Invalidate(ctx context.Context) error {
	if c.local != nil {
		c.local.Clear()
	}
	if c.client == nil {
		return nil
	}

	keys := make([]string, 0, invalidateBatch)
	iter := c.client.Scan(ctx, 0, c.opts.Prefix+"*", invalidateBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == invalidateBatch {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Key derives the cache key of a statement: prefix followed by the hex SHA-256
// of the SQL text and its msgpack-encoded arguments.
func Key(prefix, sql string, args []interface{}) (string, error) {
	h := sha256.New()
	h.Write([]byte(sql))
	h.Write([]byte{0})
	if err := msgpack.NewEncoder(h).Encode(args); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// decode reads a cached Result. Integers come back as int64 and floats as
// float64, whatever width they were written with.
func decode(data []byte) (*core.Result, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var res core.Result
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		for col, v := range row {
			if u, ok := v.(uint64); ok && u <= math.MaxInt64 {
				row[col] = int64(u)
			}
		}
	}
	return &res, nil
}
