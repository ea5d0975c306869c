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
)

func dineIn(table int) pos.TabLookup {
	return pos.TabLookup{TableNumber: &table, DeliveryType: pos.DeliveryTypeDineIn}
}

func delivery(ref string) pos.TabLookup {
	return pos.TabLookup{ContactRef: &ref, DeliveryType: pos.DeliveryTypeDelivery}
}

func createTab(t *testing.T, repo *GormTabRepository, lookup pos.TabLookup) *pos.Tab {
	t.Helper()
	tab, err := pos.NewTab(lookup)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tab))
	return tab
}

func TestGormTabRepository_FindByID(t *testing.T) {
	repo := NewGormTabRepository(newTenantDB(t))
	ctx := context.Background()
	tab := createTab(t, repo, dineIn(4))

	t.Run("finds existing tab", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tab.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.ID, found.ID)
		assert.Equal(t, 4, *found.TableNumber)
		assert.Equal(t, pos.TabStatusOpen, found.Status)
		assert.True(t, found.RunningTotal.IsZero())
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, "TAB_NOT_FOUND", shared.CodeOf(err))
	})

	t.Run("locks for update", func(t *testing.T) {
		found, err := repo.FindByIDForUpdate(ctx, tab.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.ID, found.ID)
	})
}

func TestGormTabRepository_FindOpen(t *testing.T) {
	repo := NewGormTabRepository(newTenantDB(t))
	ctx := context.Background()
	table := createTab(t, repo, dineIn(3))
	deliveryTab := createTab(t, repo, delivery("+55 11 99999-0000"))

	found, err := repo.FindOpen(ctx, dineIn(3))
	require.NoError(t, err)
	assert.Equal(t, table.ID, found.ID)

	found, err = repo.FindOpen(ctx, delivery("+55 11 99999-0000"))
	require.NoError(t, err)
	assert.Equal(t, deliveryTab.ID, found.ID)

	found, err = repo.FindOpen(ctx, delivery("  +55 11 99999-0000 "))
	require.NoError(t, err)
	assert.Equal(t, deliveryTab.ID, found.ID)

	_, err = repo.FindOpen(ctx, dineIn(9))
	assert.True(t, shared.IsNotFound(err))

	_, err = repo.FindOpen(ctx, pos.TabLookup{DeliveryType: pos.DeliveryTypeTakeout})
	assert.True(t, shared.IsNotFound(err))
}

func TestGormTabRepository_CreateRejectsSecondOpenTable(t *testing.T) {
	repo := NewGormTabRepository(newTenantDB(t))
	createTab(t, repo, dineIn(5))

	dup, err := pos.NewTab(dineIn(5))
	require.NoError(t, err)
	err = repo.Create(context.Background(), dup)

	assert.True(t, shared.IsAlreadyExists(err))
	assert.Equal(t, "OPEN_TAB_EXISTS", shared.CodeOf(err))
}

func TestGormTabRepository_AddToRunningTotal(t *testing.T) {
	repo := NewGormTabRepository(newTenantDB(t))
	ctx := context.Background()
	tab := createTab(t, repo, dineIn(1))

	for _, amount := range []string{"10.10", "0.20", "5.05"} {
		ok, err := repo.AddToRunningTotal(ctx, tab.ID, decimal.RequireFromString(amount))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	found, err := repo.FindByID(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.35", found.RunningTotal.StringFixed(2))

	ok, err := repo.AddToRunningTotal(ctx, uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormTabRepository_MarkClosed(t *testing.T) {
	repo := NewGormTabRepository(newTenantDB(t))
	ctx := context.Background()
	tab := createTab(t, repo, dineIn(2))

	require.NoError(t, tab.Close("cash", time.Now()))
	ok, err := repo.MarkClosed(ctx, tab)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkClosed(ctx, tab)
	require.NoError(t, err)
	assert.False(t, ok, "closing twice must not update")

	ok, err = repo.AddToRunningTotal(ctx, tab.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok, "closed tabs do not accept orders")

	found, err := repo.FindByID(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.TabStatusClosed, found.Status)
	assert.Equal(t, "cash", found.PaymentMethod)
	assert.NotNil(t, found.ClosedAt)

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// the table is free again
	createTab(t, repo, dineIn(2))
}
