package pos_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	apppos "github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dineIn(table int) apppos.FindOrCreateTabInput {
	return apppos.FindOrCreateTabInput{TableNumber: intPtr(table), DeliveryType: "dine_in"}
}

func item(name string, qty, price any) pos.OrderItemInput {
	return pos.OrderItemInput{ProductName: name, Quantity: qty, UnitPrice: price}
}

func TestTabService_FindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("dine-in reuses the open tab of a table", func(t *testing.T) {
		first, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(4))
		require.NoError(t, err)
		assert.Equal(t, pos.TabStatusOpen, first.Status)
		assert.True(t, first.RunningTotal.IsZero())

		again, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(4))
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		other, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(5))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})

	t.Run("delivery matches by contact", func(t *testing.T) {
		in := apppos.FindOrCreateTabInput{ContactRef: strPtr("+55 11 99999-0000"), DeliveryType: "delivery"}
		first, err := f.tabs.FindOrCreate(ctx, nsAcme, in)
		require.NoError(t, err)
		again, err := f.tabs.FindOrCreate(ctx, nsAcme, in)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("delivery contact is matched after trimming", func(t *testing.T) {
		padded := apppos.FindOrCreateTabInput{ContactRef: strPtr("555-1234 "), DeliveryType: "delivery"}
		first, err := f.tabs.FindOrCreate(ctx, nsAcme, padded)
		require.NoError(t, err)
		require.NotNil(t, first.ContactRef)
		assert.Equal(t, "555-1234", *first.ContactRef)

		again, err := f.tabs.FindOrCreate(ctx, nsAcme, padded)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID, "same contact must reuse the open tab")

		bare, err := f.tabs.FindOrCreate(ctx, nsAcme, apppos.FindOrCreateTabInput{ContactRef: strPtr(" 555-1234"), DeliveryType: "delivery"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, bare.ID)
	})

	t.Run("takeout always opens a new tab", func(t *testing.T) {
		in := apppos.FindOrCreateTabInput{DeliveryType: "takeout"}
		a, err := f.tabs.FindOrCreate(ctx, nsAcme, in)
		require.NoError(t, err)
		b, err := f.tabs.FindOrCreate(ctx, nsAcme, in)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("tenants do not share tabs", func(t *testing.T) {
		acme, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(9))
		require.NoError(t, err)
		other, err := f.tabs.FindOrCreate(ctx, nsOther, dineIn(9))
		require.NoError(t, err)
		assert.NotEqual(t, acme.ID, other.ID)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.tabs.FindOrCreate(ctx, nsAcme, apppos.FindOrCreateTabInput{DeliveryType: "dine_in"})
		assert.True(t, shared.IsValidation(err))

		_, err = f.tabs.FindOrCreate(ctx, nsAcme, apppos.FindOrCreateTabInput{DeliveryType: "drive_thru"})
		assert.True(t, shared.IsValidation(err))

		_, err = f.tabs.FindOrCreate(ctx, "tenant_DROP TABLE", dineIn(1))
		assert.True(t, shared.IsInvalidNamespace(err))
	})
}

func TestTabService_FindOrCreate_ConcurrentSameTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 8
	ids := make([]uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(12))
			if assert.NoError(t, err) {
				ids[i] = tab.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	open, err := f.tabs.ListOpenTabs(ctx, nsAcme)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestTabService_AddOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(1))
	require.NoError(t, err)

	t.Run("coerces items and increments the running total", func(t *testing.T) {
		order, err := f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
			Items: []pos.OrderItemInput{
				item("Picanha", "1.5", json.Number("89.90")),
				item("Caipirinha", 2, 18),
			},
			Notes: "sem cebola",
		})
		require.NoError(t, err)
		assert.Equal(t, pos.OrderStatusPending, order.Status)
		assert.Equal(t, "134.85", order.Items[0].TotalPrice.StringFixed(2))
		assert.Equal(t, "170.85", order.Total().StringFixed(2))

		_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
			Items: []pos.OrderItemInput{item("Água", 1, 0.1), item("Água", 1, 0.2)},
		})
		require.NoError(t, err)

		details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)
		assert.Equal(t, "171.15", details.RunningTotal.StringFixed(2))
		assert.Len(t, details.Orders, 2)
	})

	t.Run("empty order leaves the running total unchanged", func(t *testing.T) {
		before, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)

		_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{})
		assert.True(t, shared.IsValidation(err))

		after, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)
		assert.True(t, before.RunningTotal.Equal(after.RunningTotal))
	})

	t.Run("a malformed item writes nothing", func(t *testing.T) {
		before, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)

		_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
			Items: []pos.OrderItemInput{item("Pudim", 1, "12.00"), item("Café", "dois", "5")},
		})
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, "INVALID_QUANTITY", shared.CodeOf(err))

		after, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)
		assert.Len(t, after.Orders, len(before.Orders))
		assert.True(t, before.RunningTotal.Equal(after.RunningTotal))
	})

	t.Run("unknown tab", func(t *testing.T) {
		_, err := f.tabs.AddOrder(ctx, nsAcme, uuid.New(), apppos.AddOrderInput{
			Items: []pos.OrderItemInput{item("Café", 1, 5)},
		})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestTabService_AddOrder_FillsFromCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product, err := f.catalog.CreateProduct(ctx, nsAcme, apppos.CreateProductInput{Name: "Pão de queijo", Price: "6.50"})
	require.NoError(t, err)
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(2))
	require.NoError(t, err)

	order, err := f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{{ProductID: &product.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Pão de queijo", order.Items[0].ProductName)
	assert.Equal(t, "19.50", order.Items[0].TotalPrice.StringFixed(2))

	t.Run("the snapshot survives a price change", func(t *testing.T) {
		_, err := f.catalog.UpdateProductPrice(ctx, nsAcme, product.ID, apppos.UpdatePriceInput{Price: 8})
		require.NoError(t, err)

		details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)
		assert.Equal(t, "6.50", details.Orders[0].Items[0].UnitPrice.StringFixed(2))
	})

	t.Run("unknown product", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
			Items: []pos.OrderItemInput{{ProductID: &missing, Quantity: 1}},
		})
		assert.Equal(t, "PRODUCT_NOT_FOUND", shared.CodeOf(err))
	})
}

func TestTabService_MarkDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(3))
	require.NoError(t, err)
	order, err := f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{item("Feijoada", 1, "42.00")},
	})
	require.NoError(t, err)

	delivered, err := f.tabs.MarkDelivered(ctx, nsAcme, order.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	firstDelivery := *delivered.DeliveredAt

	again, err := f.tabs.MarkDelivered(ctx, nsAcme, order.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.OrderStatusDelivered, again.Status)
	assert.True(t, firstDelivery.Equal(*again.DeliveredAt))

	_, err = f.tabs.MarkDelivered(ctx, nsAcme, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func TestTabService_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(7))
	require.NoError(t, err)
	_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{item("Rodízio", 1, "100.00")},
	})
	require.NoError(t, err)

	sale, err := f.tabs.Close(ctx, nsAcme, tab.ID, apppos.CloseTabInput{
		PaymentMethod: "credit_card",
		DiscountRate:  10,
		TipRate:       "5",
		TaxRate:       json.Number("8"),
		AmountPaid:    110.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "100.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", sale.DiscountAmount.StringFixed(2))
	assert.Equal(t, "5.00", sale.TipAmount.StringFixed(2))
	assert.Equal(t, "8.00", sale.TaxAmount.StringFixed(2))
	assert.Equal(t, "103.00", sale.Total.StringFixed(2))
	assert.Equal(t, "7.00", sale.ChangeAmount.StringFixed(2))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Rodízio", sale.Items[0].Items[0].ProductName)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TabsClosed.WithLabelValues(pos.PaymentMethodCredit)))

	t.Run("the tab is closed", func(t *testing.T) {
		details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
		require.NoError(t, err)
		assert.Equal(t, pos.TabStatusClosed, details.Status)
		assert.Equal(t, "credit_card", details.PaymentMethod)
		assert.NotNil(t, details.ClosedAt)

		stored, err := f.tabs.GetSale(ctx, nsAcme, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "103.00", stored.Total.StringFixed(2))
	})

	t.Run("closing again fails and creates no sale", func(t *testing.T) {
		_, err := f.tabs.Close(ctx, nsAcme, tab.ID, apppos.CloseTabInput{PaymentMethod: "cash"})
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, "TAB_NOT_OPEN", shared.CodeOf(err))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TabsClosed.WithLabelValues(pos.PaymentMethodCredit)))
		assert.Zero(t, testutil.ToFloat64(f.metrics.TabsClosed.WithLabelValues(pos.PaymentMethodCash)))
	})

	t.Run("orders are rejected after close", func(t *testing.T) {
		_, err := f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
			Items: []pos.OrderItemInput{item("Café", 1, 5)},
		})
		assert.Equal(t, "TAB_NOT_OPEN", shared.CodeOf(err))
	})

	t.Run("the table opens a fresh tab", func(t *testing.T) {
		next, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(7))
		require.NoError(t, err)
		assert.NotEqual(t, tab.ID, next.ID)
	})
}

func TestTabService_Close_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(8))
	require.NoError(t, err)

	cases := []struct {
		name string
		in   apppos.CloseTabInput
		code string
	}{
		{"missing payment method", apppos.CloseTabInput{}, "PAYMENT_METHOD_REQUIRED"},
		{"rate above 100", apppos.CloseTabInput{PaymentMethod: "pix", TipRate: 120}, "INVALID_RATE"},
		{"negative rate", apppos.CloseTabInput{PaymentMethod: "pix", DiscountRate: "-1"}, "INVALID_RATE"},
		{"malformed amount", apppos.CloseTabInput{PaymentMethod: "pix", AmountPaid: "R$ 10"}, "INVALID_NUMBER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tabs.Close(ctx, nsAcme, tab.ID, tc.in)
			assert.True(t, shared.IsValidation(err))
			assert.Equal(t, tc.code, shared.CodeOf(err))
		})
	}

	details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.TabStatusOpen, details.Status)

	_, err = f.tabs.Close(ctx, nsAcme, uuid.New(), apppos.CloseTabInput{PaymentMethod: "cash"})
	assert.True(t, shared.IsNotFound(err))
}

func TestTabService_ConcurrentCloseCreatesOneSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(10))
	require.NoError(t, err)
	_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{item("Moqueca", 1, "120.00")},
	})
	require.NoError(t, err)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.tabs.Close(ctx, nsAcme, tab.ID, apppos.CloseTabInput{PaymentMethod: "cash"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, shared.IsNotFound(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TabsClosed.WithLabelValues(pos.PaymentMethodCash)))
}

func TestTabService_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(6))
	require.NoError(t, err)
	otherTab, err := f.tabs.FindOrCreate(ctx, nsOther, dineIn(6))
	require.NoError(t, err)

	_, err = f.tabs.GetTab(ctx, nsAcme, tab.ID)
	require.NoError(t, err)
	_, err = f.tabs.GetTab(ctx, nsOther, otherTab.ID)
	require.NoError(t, err)

	acmeKey := cache.Keyspace(nsAcme).Key("tabs", tab.ID.String())
	otherKey := cache.Keyspace(nsOther).Key("tabs", otherTab.ID.String())
	require.True(t, f.redis.Exists(acmeKey))
	require.True(t, f.redis.Exists(otherKey))

	_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{item("Café", 2, "5.00")},
	})
	require.NoError(t, err)

	assert.False(t, f.redis.Exists(acmeKey))
	assert.True(t, f.redis.Exists(otherKey))

	details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", details.RunningTotal.StringFixed(2))
}

func TestTabService_WorksWithoutCacheBackend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.redis.Close()

	tab, err := f.tabs.FindOrCreate(ctx, nsAcme, dineIn(11))
	require.NoError(t, err)
	_, err = f.tabs.AddOrder(ctx, nsAcme, tab.ID, apppos.AddOrderInput{
		Items: []pos.OrderItemInput{item("Café", 1, "5.00")},
	})
	require.NoError(t, err)

	details, err := f.tabs.GetTab(ctx, nsAcme, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", details.RunningTotal.StringFixed(2))
	assert.False(t, f.cache.IsAvailable())
}
