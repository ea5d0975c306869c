// Package pos coordinates the tab, order and sale flow of a tenant partition.
package pos

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
)

// PartitionScope gives access to the POS repositories of a tenant namespace.
// An invalid namespace fails with InvalidNamespace before fn runs.
type PartitionScope interface {
	// Read runs fn on a plain session of the partition
	Read(ctx context.Context, namespace string, fn func(repos Repositories) error) error
	// Execute runs fn within a database transaction of the partition.
	// If fn returns an error the transaction is rolled back.
	Execute(ctx context.Context, namespace string, fn func(repos Repositories) error) error
}

// Repositories provides the POS repositories of one partition session.
// All repositories returned share the same session or transaction.
type Repositories interface {
	Tabs() pos.TabRepository
	Orders() pos.OrderRepository
	Sales() pos.SaleRepository
	Products() pos.ProductRepository
}
