// Package testutil provides common test utilities for the restaurant backend.
// It sets up SQLite databases, tenant pools and caches, and decodes API
// responses for HTTP tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDB opens a private in-memory SQLite database with foreign keys
// enabled. A single connection is used so every query sees the same data.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewTenantPool returns a SQLite-backed tenant pool with the given namespaces
// already created. The pool is closed when the test ends.
func NewTenantPool(t *testing.T, namespaces ...string) *tenant.Pool {
	t.Helper()

	pool, err := tenant.NewPool(NewSQLiteDB(t), tenant.SQLite{})
	require.NoError(t, err, "Failed to create tenant pool")
	t.Cleanup(func() { _ = pool.CloseAll(context.Background()) })

	for _, ns := range namespaces {
		require.NoError(t, pool.CreateNamespace(context.Background(), ns), "Failed to create namespace %s", ns)
	}
	return pool
}

// NewCache returns a connected cache backed by an in-process redis server.
// Stopping the returned server simulates a backend outage.
func NewCache(t *testing.T, opts ...cache.Option) (*miniredis.Miniredis, *cache.Cache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := []cache.Option{cache.WithOptions(cache.Options{
		ConnectAttempts:   1,
		RetryStep:         time.Millisecond,
		MaxRetryDelay:     time.Millisecond,
		ReconnectInterval: time.Hour,
		DefaultTTL:        time.Minute,
	})}
	c := cache.New(client, append(base, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Connect(context.Background()), "Failed to connect cache")
	return mr, c
}
