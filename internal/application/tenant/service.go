// Package tenant manages the tenant directory and the partitions behind it.
// It is also the isolation boundary: every request resolves its namespace
// here before any partition is touched.
package tenant

import (
	"context"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/cockroachdb/errors"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Partitions creates and drops the storage partition of a namespace
type Partitions interface {
	CreateNamespace(ctx context.Context, namespace string) error
	DropNamespace(ctx context.Context, namespace string) error
}

// Service provisions tenants and resolves request namespaces
type Service struct {
	repo       tenant.Repository
	partitions Partitions
	memo       *gocache.Cache
	logger     *zap.Logger
}

// NewService creates a new Service. Directory lookups made by Resolve are
// memoized for lookupTTL; zero disables the memo.
func NewService(repo tenant.Repository, partitions Partitions, lookupTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:       repo,
		partitions: partitions,
		logger:     logger.Named("tenant_service"),
	}
	if lookupTTL > 0 {
		s.memo = gocache.New(lookupTTL, 2*lookupTTL)
	}
	return s
}

// Provision registers a tenant and creates its partition. If the partition
// cannot be created the directory row is removed again.
func (s *Service) Provision(ctx context.Context, namespace, name string) (*tenant.Tenant, error) {
	t, err := tenant.NewTenant(namespace, name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}

	if err := s.partitions.CreateNamespace(ctx, namespace); err != nil {
		if rbErr := s.repo.Delete(ctx, t.ID); rbErr != nil {
			s.logger.Error("Failed to roll back tenant registration",
				zap.String("tenant_namespace", namespace), zap.Error(rbErr))
			err = errors.CombineErrors(err, rbErr)
		}
		return nil, err
	}

	s.forget(namespace)
	s.logger.Info("Tenant provisioned", zap.String("tenant_namespace", namespace), zap.String("tenant_id", t.ID.String()))
	return t, nil
}

// Deactivate suspends a tenant. Its data is kept.
func (s *Service) Deactivate(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	return s.setActive(ctx, namespace, false)
}

// Activate re-enables a suspended tenant
func (s *Service) Activate(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	return s.setActive(ctx, namespace, true)
}

func (s *Service) setActive(ctx context.Context, namespace string, active bool) (*tenant.Tenant, error) {
	t, err := s.find(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if t.Active == active {
		return t, nil
	}
	if active {
		t.Activate()
	} else {
		t.Deactivate()
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.forget(namespace)
	s.logger.Info("Tenant status changed", zap.String("tenant_namespace", namespace), zap.Bool("active", active))
	return t, nil
}

// Delete drops the tenant's partition and removes it from the directory. The
// tenant is deactivated first so concurrent requests stop resolving it.
func (s *Service) Delete(ctx context.Context, namespace string) error {
	t, err := s.setActive(ctx, namespace, false)
	if err != nil {
		return err
	}
	if err := s.partitions.DropNamespace(ctx, namespace); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return err
	}
	s.forget(namespace)
	s.logger.Warn("Tenant deleted", zap.String("tenant_namespace", namespace))
	return nil
}

// List returns every tenant in the directory
func (s *Service) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.repo.List(ctx)
}

// ListActive returns the tenants batch jobs run for
func (s *Service) ListActive(ctx context.Context) ([]tenant.Tenant, error) {
	return s.repo.ListActive(ctx)
}

// Resolve maps a request namespace to its tenant. It fails with
// InvalidNamespace, NotFound or TenantInactive.
func (s *Service) Resolve(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	t, err := s.lookup(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, shared.TenantInactive(namespace)
	}
	return t, nil
}

func (s *Service) lookup(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	if err := tenant.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if s.memo != nil {
		if v, ok := s.memo.Get(namespace); ok {
			t := v.(tenant.Tenant)
			return &t, nil
		}
	}
	t, err := s.repo.FindByNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if s.memo != nil {
		s.memo.SetDefault(namespace, *t)
	}
	return t, nil
}

func (s *Service) find(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	if err := tenant.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	return s.repo.FindByNamespace(ctx, namespace)
}

func (s *Service) forget(namespace string) {
	if s.memo != nil {
		s.memo.Delete(namespace)
	}
}
