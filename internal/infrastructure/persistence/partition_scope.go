package persistence

import (
	"context"

	appfinance "github.com/TOMBRITO1979/restaurante-sub001/internal/application/finance"
	apppos "github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/finance"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// partitions resolves a namespace to its handle and runs work on it
type partitions struct {
	pool *tenant.Pool
}

func (p partitions) do(ctx context.Context, namespace string, fn func(db *gorm.DB) error) error {
	h, err := p.pool.GetHandle(namespace)
	if err != nil {
		return err
	}
	return h.Do(ctx, fn)
}

func (p partitions) transaction(ctx context.Context, namespace string, fn func(tx *gorm.DB) error) error {
	h, err := p.pool.GetHandle(namespace)
	if err != nil {
		return err
	}
	return h.Transaction(ctx, fn)
}

// GormPOSScope implements apppos.PartitionScope on the tenant pool
type GormPOSScope struct {
	partitions
}

// NewGormPOSScope creates a new GormPOSScope
func NewGormPOSScope(pool *tenant.Pool) *GormPOSScope {
	return &GormPOSScope{partitions{pool: pool}}
}

// Read runs fn with repositories on a plain session of the partition
func (s *GormPOSScope) Read(ctx context.Context, namespace string, fn func(repos apppos.Repositories) error) error {
	return s.do(ctx, namespace, func(db *gorm.DB) error {
		return fn(gormPOSRepositories{db: db})
	})
}

// Execute runs fn within a transaction of the partition.
// If fn returns an error, the transaction is rolled back.
func (s *GormPOSScope) Execute(ctx context.Context, namespace string, fn func(repos apppos.Repositories) error) error {
	return s.transaction(ctx, namespace, func(tx *gorm.DB) error {
		return fn(gormPOSRepositories{db: tx})
	})
}

// gormPOSRepositories provides the POS repositories bound to one session
type gormPOSRepositories struct {
	db *gorm.DB
}

func (r gormPOSRepositories) Tabs() pos.TabRepository { return NewGormTabRepository(r.db) }
func (r gormPOSRepositories) Orders() pos.OrderRepository { return NewGormOrderRepository(r.db) }
func (r gormPOSRepositories) Sales() pos.SaleRepository { return NewGormSaleRepository(r.db) }
func (r gormPOSRepositories) Products() pos.ProductRepository { return NewGormProductRepository(r.db) }

// GormExpenseScope implements appfinance.ExpenseScope on the tenant pool
type GormExpenseScope struct {
	partitions
}

// NewGormExpenseScope creates a new GormExpenseScope
func NewGormExpenseScope(pool *tenant.Pool) *GormExpenseScope {
	return &GormExpenseScope{partitions{pool: pool}}
}

// Read runs fn on a plain session of the partition
func (s *GormExpenseScope) Read(ctx context.Context, namespace string, fn func(expenses finance.ExpenseRepository) error) error {
	return s.do(ctx, namespace, func(db *gorm.DB) error {
		return fn(NewGormExpenseRepository(db))
	})
}

// Execute runs fn within a transaction of the partition
func (s *GormExpenseScope) Execute(ctx context.Context, namespace string, fn func(expenses finance.ExpenseRepository) error) error {
	return s.transaction(ctx, namespace, func(tx *gorm.DB) error {
		return fn(NewGormExpenseRepository(tx))
	})
}

var (
	_ apppos.PartitionScope     = (*GormPOSScope)(nil)
	_ apppos.Repositories       = gormPOSRepositories{}
	_ appfinance.ExpenseScope   = (*GormExpenseScope)(nil)
	_ pos.TabRepository         = (*GormTabRepository)(nil)
	_ pos.OrderRepository       = (*GormOrderRepository)(nil)
	_ pos.SaleRepository        = (*GormSaleRepository)(nil)
	_ pos.ProductRepository     = (*GormProductRepository)(nil)
	_ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
)
