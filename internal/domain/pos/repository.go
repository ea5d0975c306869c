package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TabRepository persists tabs and their orders inside one partition
type TabRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tab, error)
	// FindByIDForUpdate locks the tab row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Tab, error)
	FindOpen(ctx context.Context, lookup TabLookup) (*Tab, error)
	ListOpen(ctx context.Context) ([]Tab, error)
	Create(ctx context.Context, tab *Tab) error
	// AddToRunningTotal increments running_total in place for an open tab and
	// reports whether a row was updated.
	AddToRunningTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
	// MarkClosed transitions an open tab to closed and reports whether a row
	// was updated.
	MarkClosed(ctx context.Context, tab *Tab) (bool, error)
}

// OrderRepository persists orders and items
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByTab(ctx context.Context, tabID uuid.UUID) ([]Order, error)
	Create(ctx context.Context, order *Order) error
	MarkDelivered(ctx context.Context, order *Order) (bool, error)
}

// SaleRepository persists sales and their payment records
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByTab(ctx context.Context, tabID uuid.UUID) (*Sale, error)
	Create(ctx context.Context, sale *Sale) error
	CreatePayment(ctx context.Context, payment *PaymentRecord) error
}

// ProductRepository reads and writes the catalog
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, product *Product) error
}
