package persistence

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormTenantRepository implements tenant.Repository on the shared directory table
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "TENANT_NOT_FOUND", "tenant", id)
	}
	return model.ToDomain(), nil
}

// FindByNamespace finds a tenant by its namespace
func (r *GormTenantRepository) FindByNamespace(ctx context.Context, namespace string) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Where("namespace = ?", namespace).First(&model).Error; err != nil {
		return nil, findError(err, "TENANT_NOT_FOUND", "tenant", namespace)
	}
	return model.ToDomain(), nil
}

// ListActive returns active tenants ordered by namespace
func (r *GormTenantRepository) ListActive(ctx context.Context) ([]tenant.Tenant, error) {
	return r.list(r.db.WithContext(ctx).Where("active = ?", true))
}

// List returns every tenant ordered by namespace
func (r *GormTenantRepository) List(ctx context.Context) ([]tenant.Tenant, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *GormTenantRepository) list(query *gorm.DB) ([]tenant.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := query.Order("namespace ASC").Find(&tenantModels).Error; err != nil {
		return nil, shared.StorageError(err, "list tenants")
	}
	return lo.Map(tenantModels, func(m models.TenantModel, _ int) tenant.Tenant {
		return *m.ToDomain()
	}), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	err := r.db.WithContext(ctx).Save(models.TenantModelFromDomain(t)).Error
	return writeError(err, "TENANT_EXISTS", "save tenant "+t.Namespace)
}

// Delete removes a tenant from the directory
func (r *GormTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TenantModel{}, "id = ?", id)
	if result.Error != nil {
		return shared.StorageError(result.Error, "delete tenant")
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("TENANT_NOT_FOUND", "tenant %s not found", id)
	}
	return nil
}

// AutoMigrate creates the directory table. Used by the SQLite development
// setup; Postgres uses the embedded migrations.
func (r *GormTenantRepository) AutoMigrate(ctx context.Context) error {
	return shared.StorageError(r.db.WithContext(ctx).AutoMigrate(&models.TenantModel{}), "migrate tenants")
}
