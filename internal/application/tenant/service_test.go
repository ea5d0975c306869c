package tenant_test

import (
	"context"
	"testing"
	"time"

	apptenant "github.com/TOMBRITO1979/restaurante-sub001/internal/application/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence"
	pooltenant "github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/tests/testutil"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repo    *persistence.GormTenantRepository
	pool    *pooltenant.Pool
	service *apptenant.Service
}

func newFixture(t *testing.T, lookupTTL time.Duration) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repo := persistence.NewGormTenantRepository(db)
	require.NoError(t, repo.AutoMigrate(context.Background()))

	pool, err := pooltenant.NewPool(db, pooltenant.SQLite{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.CloseAll(context.Background()) })

	return &fixture{
		db:      db,
		repo:    repo,
		pool:    pool,
		service: apptenant.NewService(repo, pool, lookupTTL, nil),
	}
}

// MockPartitions is a mock implementation of Partitions
type MockPartitions struct {
	mock.Mock
}

func (m *MockPartitions) CreateNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

func (m *MockPartitions) DropNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

func TestService_Provision(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	tn, err := f.service.Provision(ctx, "tenant_bistro", "  Bistrô da Praça ")
	require.NoError(t, err)
	assert.Equal(t, "Bistrô da Praça", tn.Name)
	assert.True(t, tn.Active)
	assert.True(t, f.db.Migrator().HasTable("tenant_bistro__tabs"))

	t.Run("duplicate namespace", func(t *testing.T) {
		_, err := f.service.Provision(ctx, "tenant_bistro", "Other")
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("invalid namespace", func(t *testing.T) {
		_, err := f.service.Provision(ctx, "bistro", "Bistro")
		assert.True(t, shared.IsInvalidNamespace(err))
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := f.service.Provision(ctx, "tenant_noname", " ")
		assert.True(t, shared.IsValidation(err))
	})
}

func TestService_ProvisionRollsBackOnPartitionFailure(t *testing.T) {
	f := newFixture(t, 0)
	partitions := new(MockPartitions)
	svc := apptenant.NewService(f.repo, partitions, 0, nil)
	ctx := context.Background()

	partitions.On("CreateNamespace", ctx, "tenant_bistro").
		Return(shared.StorageError(errors.New("disk full"), "create namespace"))

	_, err := svc.Provision(ctx, "tenant_bistro", "Bistro")
	require.Error(t, err)
	assert.True(t, shared.IsStorage(err))

	_, err = f.repo.FindByNamespace(ctx, "tenant_bistro")
	assert.True(t, shared.IsNotFound(err), "directory row must be removed")
	partitions.AssertExpectations(t)
}

func TestService_Resolve(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.service.Provision(ctx, "tenant_bistro", "Bistro")
	require.NoError(t, err)

	tn, err := f.service.Resolve(ctx, "tenant_bistro")
	require.NoError(t, err)
	assert.Equal(t, "tenant_bistro", tn.Namespace)

	_, err = f.service.Resolve(ctx, "tenant_unknown")
	assert.True(t, shared.IsNotFound(err))

	_, err = f.service.Resolve(ctx, "public")
	assert.True(t, shared.IsInvalidNamespace(err))

	_, err = f.service.Deactivate(ctx, "tenant_bistro")
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, "tenant_bistro")
	assert.True(t, shared.IsTenantInactive(err))

	_, err = f.service.Activate(ctx, "tenant_bistro")
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, "tenant_bistro")
	assert.NoError(t, err)
}

func TestService_ResolveMemo(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	_, err := f.service.Provision(ctx, "tenant_bistro", "Bistro")
	require.NoError(t, err)

	_, err = f.service.Resolve(ctx, "tenant_bistro")
	require.NoError(t, err)

	t.Run("serves lookups from memory", func(t *testing.T) {
		require.NoError(t, f.db.Exec("UPDATE tenants SET name = ? WHERE namespace = ?", "Renamed", "tenant_bistro").Error)
		tn, err := f.service.Resolve(ctx, "tenant_bistro")
		require.NoError(t, err)
		assert.Equal(t, "Bistro", tn.Name)
	})

	t.Run("status changes evict the entry", func(t *testing.T) {
		_, err := f.service.Deactivate(ctx, "tenant_bistro")
		require.NoError(t, err)
		_, err = f.service.Resolve(ctx, "tenant_bistro")
		assert.True(t, shared.IsTenantInactive(err))
	})

	t.Run("returned tenants are copies", func(t *testing.T) {
		_, err := f.service.Activate(ctx, "tenant_bistro")
		require.NoError(t, err)
		a, err := f.service.Resolve(ctx, "tenant_bistro")
		require.NoError(t, err)
		a.Active = false
		b, err := f.service.Resolve(ctx, "tenant_bistro")
		require.NoError(t, err)
		assert.True(t, b.Active)
	})
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	_, err := f.service.Provision(ctx, "tenant_bistro", "Bistro")
	require.NoError(t, err)
	_, err = f.service.Provision(ctx, "tenant_cantina", "Cantina")
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, "tenant_bistro")
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, "tenant_bistro"))

	assert.False(t, f.db.Migrator().HasTable("tenant_bistro__tabs"))
	assert.True(t, f.db.Migrator().HasTable("tenant_cantina__tabs"))
	_, err = f.service.Resolve(ctx, "tenant_bistro")
	assert.True(t, shared.IsNotFound(err))

	all, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "tenant_cantina", all[0].Namespace)

	err = f.service.Delete(ctx, "tenant_bistro")
	assert.True(t, shared.IsNotFound(err))
}

func TestService_ListActive(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	for _, ns := range []string{"tenant_c", "tenant_a", "tenant_b"} {
		_, err := f.service.Provision(ctx, ns, ns)
		require.NoError(t, err)
	}
	_, err := f.service.Deactivate(ctx, "tenant_b")
	require.NoError(t, err)

	active, err := f.service.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "tenant_a", active[0].Namespace)
	assert.Equal(t, "tenant_c", active[1].Namespace)
}
