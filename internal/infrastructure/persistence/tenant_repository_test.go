package persistence

import (
	"context"
	"testing"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantRepository(t *testing.T) *GormTenantRepository {
	t.Helper()
	repo := NewGormTenantRepository(testutil.NewSQLiteDB(t))
	require.NoError(t, repo.AutoMigrate(context.Background()))
	return repo
}

func TestGormTenantRepository(t *testing.T) {
	repo := newTenantRepository(t)
	ctx := context.Background()

	zeta, err := tenant.NewTenant("tenant_zeta", "Zeta Bistrô")
	require.NoError(t, err)
	acme, err := tenant.NewTenant("tenant_acme", "Acme Grill")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, zeta))
	require.NoError(t, repo.Save(ctx, acme))

	t.Run("find by namespace", func(t *testing.T) {
		found, err := repo.FindByNamespace(ctx, "tenant_acme")
		require.NoError(t, err)
		assert.Equal(t, acme.ID, found.ID)
		assert.True(t, found.Active)

		_, err = repo.FindByNamespace(ctx, "tenant_nope")
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, "TENANT_NOT_FOUND", shared.CodeOf(err))
	})

	t.Run("duplicate namespace", func(t *testing.T) {
		dup, err := tenant.NewTenant("tenant_acme", "Another Acme")
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("list active skips deactivated", func(t *testing.T) {
		zeta.Deactivate()
		require.NoError(t, repo.Save(ctx, zeta))

		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "tenant_acme", active[0].Namespace)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "tenant_acme", all[0].Namespace)
		assert.Equal(t, "tenant_zeta", all[1].Namespace)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, zeta.ID))
		_, err := repo.FindByID(ctx, zeta.ID)
		assert.True(t, shared.IsNotFound(err))

		assert.True(t, shared.IsNotFound(repo.Delete(ctx, uuid.New())))
	})
}
