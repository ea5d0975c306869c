// Package tenant gives every tenant namespace its own database partition.
//
// A Pool hands out one Handle per namespace. Handles share the pool's
// connections; each one is a gorm.DB whose naming strategy prefixes every
// table with the namespace, so queries made through it can only reach that
// tenant's tables.
//
// Usage:
//
//	pool, _ := tenant.NewPool(db, tenant.Postgres{})
//	h, _ := pool.GetHandle("tenant_acme")
//	err := h.Transaction(ctx, func(tx *gorm.DB) error {
//		return tx.Create(&models.TabModel{...}).Error // "tenant_acme"."tabs"
//	})
package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	tenantdomain "github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrPoolClosed is returned once CloseAll has been called
var ErrPoolClosed = errors.Mark(errors.New("tenant pool is closed"), shared.ErrStorage)

// Option configures a Pool
type Option func(*Pool)

// WithLogger sets the pool logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger.Named("tenant_pool")
		}
	}
}

// WithMetrics records handle counts and namespace operations
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// WithTracing adds an otelgorm span, tagged with the namespace, for every
// statement run through a handle. Query variables are masked.
func WithTracing() Option {
	return func(p *Pool) {
		p.tracing = true
	}
}

// Pool caches one Handle per namespace on a shared connection pool
type Pool struct {
	root    *gorm.DB
	sqlDB   *sql.DB
	dialect Dialect
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracing bool

	mu       sync.RWMutex
	handles  map[string]*Handle
	closed   bool
	inflight sync.WaitGroup
}

// NewPool creates a pool on root's connections. root itself stays usable for
// directory-level statements.
func NewPool(root *gorm.DB, dialect Dialect, opts ...Option) (*Pool, error) {
	if root == nil {
		return nil, errors.New("tenant pool requires a database")
	}
	if dialect == nil {
		return nil, errors.New("tenant pool requires a dialect")
	}
	sqlDB, err := root.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	p := &Pool{
		root:    root,
		sqlDB:   sqlDB,
		dialect: dialect,
		logger:  zap.NewNop(),
		handles: make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Dialect returns the pool's dialect
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Len returns the number of cached handles
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handles)
}

// GetHandle returns the handle of namespace, creating it on first use. The
// same *Handle is returned for a namespace until it is dropped.
func (p *Pool) GetHandle(namespace string) (*Handle, error) {
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	h, ok := p.handles[namespace]
	p.mu.RUnlock()
	if ok {
		return h, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	if h, ok := p.handles[namespace]; ok {
		return h, nil
	}

	db, err := p.open(namespace)
	if err != nil {
		return nil, shared.StorageError(err, "open handle for "+namespace)
	}
	h = &Handle{namespace: namespace, db: db, pool: p}
	p.handles[namespace] = h
	p.metrics.SetTenantHandles(len(p.handles))
	p.logger.Debug("Tenant handle created", zap.String("tenant_namespace", namespace))
	return h, nil
}

func (p *Pool) open(namespace string) (*gorm.DB, error) {
	db, err := gorm.Open(p.dialect.Dialector(p.sqlDB), &gorm.Config{
		Logger: p.root.Config.Logger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   p.dialect.TablePrefix(namespace),
			SingularTable: true,
		},
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                p.root.Config.NowFunc,
	})
	if err != nil || !p.tracing {
		return db, err
	}
	// pool-level prometheus gauges already cover connection stats
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(p.dialect.Name()),
		otelgorm.WithAttributes(attribute.String("tenant_namespace", namespace)),
		otelgorm.WithoutQueryVariables(),
		otelgorm.WithoutMetrics(),
	)
	if err := db.Use(plugin); err != nil {
		return nil, errors.Wrap(err, "register tracing plugin")
	}
	return db, nil
}

// CreateNamespace creates the partition of namespace and migrates the tenant
// table set into it.
func (p *Pool) CreateNamespace(ctx context.Context, namespace string) (err error) {
	defer func() { p.metrics.NamespaceOperation("create", err) }()

	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := p.dialect.CreateNamespace(ctx, p.root, namespace); err != nil {
		return shared.StorageError(err, "create namespace "+namespace)
	}
	h, err := p.GetHandle(namespace)
	if err != nil {
		return err
	}
	if err := h.Do(ctx, migrate); err != nil {
		return shared.StorageError(err, "migrate namespace "+namespace)
	}
	p.logger.Info("Namespace created",
		zap.String("tenant_namespace", namespace),
		zap.Int("tables", len(models.TenantTableNames)),
	)
	return nil
}

// MigrateNamespace brings an existing partition up to the current table set
func (p *Pool) MigrateNamespace(ctx context.Context, namespace string) error {
	h, err := p.GetHandle(namespace)
	if err != nil {
		return err
	}
	return shared.StorageError(h.Do(ctx, migrate), "migrate namespace "+namespace)
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.TenantTables()...); err != nil {
		return err
	}
	for _, idx := range models.TenantIndexes {
		if err := db.Exec(indexSQL(db, idx)).Error; err != nil {
			return errors.Wrapf(err, "create index %s on %s", idx.Suffix, idx.Table)
		}
	}
	return nil
}

func indexSQL(db *gorm.DB, idx models.Index) string {
	table := db.NamingStrategy.TableName(idx.Table)
	name := db.NamingStrategy.IndexName(table, idx.Suffix)
	columns := lo.Map(idx.Columns, func(c string, _ int) string {
		return db.Statement.Quote(c)
	})
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, db.Statement.Quote(name), db.Statement.Quote(table), strings.Join(columns, ", "))
	if idx.Where != "" {
		stmt += " WHERE " + idx.Where
	}
	return stmt
}

// DropNamespace removes the partition of namespace with all its data and
// evicts the cached handle.
func (p *Pool) DropNamespace(ctx context.Context, namespace string) (err error) {
	defer func() { p.metrics.NamespaceOperation("drop", err) }()

	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := p.dialect.DropNamespace(ctx, p.root, namespace); err != nil {
		return shared.StorageError(err, "drop namespace "+namespace)
	}
	p.evict(namespace)
	p.logger.Info("Namespace dropped", zap.String("tenant_namespace", namespace))
	return nil
}

func (p *Pool) evict(namespace string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handles, namespace)
	p.metrics.SetTenantHandles(len(p.handles))
}

// CloseAll stops handing out handles, waits for in-flight work until ctx is
// done and closes the shared connections.
func (p *Pool) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = errors.Wrap(ctx.Err(), "waiting for in-flight tenant work")
		p.logger.Warn("Closing tenant pool with work still in flight", zap.Error(ctx.Err()))
	}

	p.mu.Lock()
	released := len(p.handles)
	p.handles = make(map[string]*Handle)
	p.mu.Unlock()
	p.metrics.SetTenantHandles(0)

	closeErr := p.sqlDB.Close()
	p.logger.Info("Tenant pool closed", zap.Int("handles_released", released))
	if closeErr != nil {
		return errors.CombineErrors(waitErr, shared.StorageError(closeErr, "close connections"))
	}
	return waitErr
}

// acquire registers in-flight work. The returned func must be called when
// the work is done.
func (p *Pool) acquire() (func(), error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	p.inflight.Add(1)
	return p.inflight.Done, nil
}
