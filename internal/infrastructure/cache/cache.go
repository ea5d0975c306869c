// Package cache is the tenant-scoped, best-effort cache in front of the
// tenant partitions. Backend failures never reach callers: reads become
// misses and writes are skipped while the backend is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const defaultScanBatchSize = 100

// State of the backend connection
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAvailable
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAvailable:
		return "available"
	default:
		return "disconnected"
	}
}

// Options tunes connection handling
type Options struct {
	ConnectAttempts   int
	RetryStep         time.Duration
	MaxRetryDelay     time.Duration
	ReconnectInterval time.Duration
	DefaultTTL        time.Duration
}

// DefaultOptions returns 3 connection attempts spaced min(attempt×100ms, 2s)
func DefaultOptions() Options {
	return Options{
		ConnectAttempts:   3,
		RetryStep:         100 * time.Millisecond,
		MaxRetryDelay:     2 * time.Second,
		ReconnectInterval: 30 * time.Second,
		DefaultTTL:        5 * time.Minute,
	}
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger.Named("cache")
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithOptions overrides the connection options
func WithOptions(opts Options) Option {
	return func(c *Cache) {
		c.opts = opts
	}
}

// Cache wraps a redis client with an availability state machine:
// disconnected -> connecting -> available, and back to disconnected on any
// backend error. A nil *Cache behaves as permanently unavailable.
type Cache struct {
	client     redis.UniversalClient
	ownsClient bool
	opts       Options
	logger     *zap.Logger
	metrics    *metrics.Metrics

	state        atomic.Int32
	lastAttempt  atomic.Int64 // unix nanos of the last finished connection cycle
	reconnecting atomic.Bool
	closed       atomic.Bool
	connectMu    chan struct{}
	background   conc.WaitGroup
}

// New wraps client. The cache starts disconnected; call Connect, or let the
// first operation trigger a connection in the background. A nil client gives
// a cache that is never available.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{
		client:    client,
		opts:      DefaultOptions(),
		logger:    zap.NewNop(),
		connectMu: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics.SetCacheAvailable(false)
	return c
}

// NewFromConfig creates a cache owning its redis client. A disabled cache
// never connects.
func NewFromConfig(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...Option) *Cache {
	base := []Option{WithOptions(Options{
		ConnectAttempts:   cacheCfg.ConnectAttempts,
		RetryStep:         100 * time.Millisecond,
		MaxRetryDelay:     cacheCfg.ConnectMaxDelay,
		ReconnectInterval: cacheCfg.ReconnectInterval,
		DefaultTTL:        cacheCfg.DefaultTTL,
	})}
	opts = append(base, opts...)
	if !cacheCfg.Enabled {
		return New(nil, opts...)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{redisCfg.Addr()},
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		MaxRetries:   -1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	c := New(client, opts...)
	c.ownsClient = true
	return c
}

// State returns the current connection state
func (c *Cache) State() State {
	if c == nil {
		return StateDisconnected
	}
	return State(c.state.Load())
}

// IsAvailable reports whether the backend is connected
func (c *Cache) IsAvailable() bool {
	return c.State() == StateAvailable
}

func (c *Cache) setState(s State) {
	c.state.Store(int32(s))
	c.metrics.SetCacheAvailable(s == StateAvailable)
}

// Connect runs one connection cycle: up to ConnectAttempts pings with a
// linear backoff. It reports whether the cache ended up available; failure is
// logged, not returned. Concurrent calls share one cycle.
func (c *Cache) Connect(ctx context.Context) bool {
	if c == nil || c.client == nil || c.closed.Load() {
		return false
	}
	select {
	case c.connectMu <- struct{}{}:
		defer func() { <-c.connectMu }()
	case <-ctx.Done():
		return c.IsAvailable()
	}
	if c.IsAvailable() {
		return true
	}

	c.setState(StateConnecting)
	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			return c.client.Ping(ctx).Err()
		},
		backoff.WithContext(connectBackOff(c.opts.ConnectAttempts, c.opts.RetryStep, c.opts.MaxRetryDelay), ctx),
		func(err error, next time.Duration) {
			c.logger.Debug("cache connection attempt failed",
				zap.Int("attempt", attempts),
				zap.Duration("retry_in", next),
				zap.Error(err))
		},
	)
	c.lastAttempt.Store(time.Now().UnixNano())
	if err != nil {
		c.setState(StateDisconnected)
		c.logger.Warn("cache backend unavailable, continuing without cache",
			zap.Int("attempts", attempts),
			zap.Error(err))
		return false
	}
	c.setState(StateAvailable)
	c.logger.Info("cache backend connected", zap.Int("attempts", attempts))
	return true
}

// available reports whether an operation may use the backend. While
// disconnected it starts at most one background reconnection per
// ReconnectInterval.
func (c *Cache) available() bool {
	if c == nil {
		return false
	}
	if c.IsAvailable() {
		return true
	}
	c.maybeReconnect()
	return false
}

func (c *Cache) maybeReconnect() {
	if c.client == nil || c.closed.Load() || c.State() != StateDisconnected {
		return
	}
	if time.Since(time.Unix(0, c.lastAttempt.Load())) < c.opts.ReconnectInterval {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	c.background.Go(func() {
		defer c.reconnecting.Store(false)
		timeout := time.Duration(c.opts.ConnectAttempts) * (c.opts.MaxRetryDelay + time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		c.Connect(ctx)
	})
}

// fail handles a backend error: it is logged and the cache becomes
// unavailable. Errors caused by the caller's own context are ignored.
func (c *Cache) fail(ctx context.Context, op, key string, err error) {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return
	}
	c.metrics.CacheError(op)
	if c.state.CompareAndSwap(int32(StateAvailable), int32(StateDisconnected)) {
		c.lastAttempt.Store(time.Now().UnixNano())
		c.metrics.SetCacheAvailable(false)
		c.logger.Warn("transient cache error, cache marked unavailable",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Error(err))
	}
}

func (c *Cache) skipInvalid(op, key string) bool {
	if err := checkKey(key); err != nil {
		if c != nil {
			c.logger.Warn("invalid cache key skipped", zap.String("operation", op), zap.String("key", key), zap.Error(err))
		}
		return true
	}
	return false
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.skipInvalid("get", key) {
		return nil, false
	}
	resource := resourceOf(key)
	if !c.available() {
		c.metrics.CacheLookup(resource, "unavailable")
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheLookup(resource, "miss")
		return nil, false
	}
	if err != nil {
		c.fail(ctx, "get", key, err)
		c.metrics.CacheLookup(resource, "unavailable")
		return nil, false
	}
	c.metrics.CacheLookup(resource, "hit")
	return data, true
}

// Get returns the decoded value stored at key. Misses, an unavailable
// backend and undecodable entries all return false.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	data, ok := c.get(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

// Set stores value as JSON under key. A ttl <= 0 uses the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.skipInvalid("set", key) || !c.available() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value not encodable", zap.String("key", key), zap.Error(err))
		return
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.fail(ctx, "set", key, err)
	}
}

// Delete removes exact keys
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if !c.skipInvalid("delete", k) {
			valid = append(valid, k)
		}
	}
	if len(valid) == 0 || !c.available() {
		return
	}
	if err := c.client.Del(ctx, valid...).Err(); err != nil {
		c.fail(ctx, "delete", valid[0], err)
	}
}

// Invalidate deletes every key matching pattern, e.g. tenant_acme:products:*.
// The namespace segment is validated, so a pattern never spans tenants.
// Uses SCAN rather than KEYS to avoid blocking the backend.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	if c.skipInvalid("invalidate", pattern) || !c.available() {
		return
	}
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, defaultScanBatchSize).Result()
		if err != nil {
			c.fail(ctx, "scan", pattern, err)
			return
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.fail(ctx, "delete", pattern, err)
				return
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int64("deleted", deleted))
}

// GetOrLoad returns the cached value at key or calls load and caches its
// result. Loader errors are returned and nothing is cached.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := Get[T](ctx, c, key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}

// Close stops background reconnection and closes an owned client
func (c *Cache) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.background.Wait()
	c.setState(StateDisconnected)
	if c.ownsClient && c.client != nil {
		return c.client.Close()
	}
	return nil
}
