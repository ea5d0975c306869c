package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(t *testing.T, tabID uuid.UUID, items ...pos.OrderItemInput) *pos.Order {
	t.Helper()
	lines, err := pos.ParseOrderItems(items)
	require.NoError(t, err)
	order, err := pos.NewOrder(tabID, lines, "")
	require.NoError(t, err)
	return order
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	db := newTenantDB(t)
	tabs := NewGormTabRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tab := createTab(t, tabs, dineIn(1))

	order := newOrder(t, tab.ID,
		pos.OrderItemInput{ProductName: "Feijoada", Quantity: 2, UnitPrice: "39.90"},
		pos.OrderItemInput{ProductName: "Guaraná", Quantity: "1", UnitPrice: 6.5, Notes: "gelado"},
	)
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 2)
	assert.True(t, found.Total().Equal(decimal.RequireFromString("86.30")))

	byTab, err := repo.FindByTab(ctx, tab.ID)
	require.NoError(t, err)
	require.Len(t, byTab, 1)
	assert.Len(t, byTab[0].Items, 2)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Equal(t, "ORDER_NOT_FOUND", shared.CodeOf(err))
}

func TestGormOrderRepository_MarkDelivered(t *testing.T) {
	db := newTenantDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tab := createTab(t, NewGormTabRepository(db), dineIn(1))
	order := newOrder(t, tab.ID, pos.OrderItemInput{ProductName: "Café", Quantity: 1, UnitPrice: 5})
	require.NoError(t, repo.Create(ctx, order))

	require.True(t, order.MarkDelivered(time.Now()))
	ok, err := repo.MarkDelivered(ctx, order)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkDelivered(ctx, order)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.OrderStatusDelivered, found.Status)
	assert.NotNil(t, found.DeliveredAt)
}

func TestGormOrderRepository_CascadesWithTab(t *testing.T) {
	db := newTenantDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tab := createTab(t, NewGormTabRepository(db), dineIn(1))
	order := newOrder(t, tab.ID, pos.OrderItemInput{ProductName: "Café", Quantity: 1, UnitPrice: 5})
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, db.Exec("DELETE FROM "+db.Statement.Quote(db.NamingStrategy.TableName("tabs"))+" WHERE id = ?", tab.ID).Error)

	_, err := repo.FindByID(ctx, order.ID)
	assert.True(t, shared.IsNotFound(err))

	var items int64
	require.NoError(t, db.Table(db.NamingStrategy.TableName("order_items")).Count(&items).Error)
	assert.Zero(t, items)
}

func TestGormSaleRepository(t *testing.T) {
	db := newTenantDB(t)
	tabs := NewGormTabRepository(db)
	orders := NewGormOrderRepository(db)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()

	tab := createTab(t, tabs, dineIn(8))
	order := newOrder(t, tab.ID, pos.OrderItemInput{ProductName: "Pizza", Quantity: 1, UnitPrice: "50.00"})
	require.NoError(t, orders.Create(ctx, order))
	tab.RunningTotal = order.Total()

	sale, err := pos.NewSale(tab, []pos.Order{*order}, pos.CloseRequest{
		PaymentMethod: "pix",
		Rates:         pos.Rates{Tip: decimal.NewFromInt(10)},
		AmountPaid:    decimal.NewFromInt(60),
	}, time.Now())
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		r := NewGormSaleRepository(tx)
		if err := r.Create(ctx, sale); err != nil {
			return err
		}
		return r.CreatePayment(ctx, pos.NewPaymentRecord(sale))
	}))

	found, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "55.00", found.Total.StringFixed(2))
	assert.Equal(t, "5.00", found.ChangeAmount.StringFixed(2))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Pizza", found.Items[0].Items[0].ProductName)

	byTab, err := repo.FindByTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, byTab.ID)

	t.Run("one sale per tab", func(t *testing.T) {
		again, err := pos.NewSale(tab, nil, pos.CloseRequest{PaymentMethod: "cash"}, time.Now())
		require.NoError(t, err)
		err = repo.Create(ctx, again)
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.Equal(t, "SALE_NOT_FOUND", shared.CodeOf(err))
	})
}
