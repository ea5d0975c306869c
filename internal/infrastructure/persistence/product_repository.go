package persistence

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements pos.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "PRODUCT_NOT_FOUND", "product", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the products among ids that exist. Missing ids are
// silently skipped; callers compare lengths when they need all of them.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]pos.Product, error) {
	if len(ids) == 0 {
		return []pos.Product{}, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&productModels).Error; err != nil {
		return nil, shared.StorageError(err, "find products")
	}
	return toProducts(productModels), nil
}

// List returns the catalog ordered by name
func (r *GormProductRepository) List(ctx context.Context) ([]pos.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&productModels).Error; err != nil {
		return nil, shared.StorageError(err, "list products")
	}
	return toProducts(productModels), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *pos.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(models.ProductModelFromDomain(product)).Error
	return writeError(err, "PRODUCT_EXISTS", "save product")
}

func toProducts(productModels []models.ProductModel) []pos.Product {
	return lo.Map(productModels, func(m models.ProductModel, _ int) pos.Product {
		return *m.ToDomain()
	})
}
