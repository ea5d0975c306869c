package persistence

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements pos.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "SALE_NOT_FOUND", "sale", id)
	}
	return r.toDomain(&model)
}

// FindByTab finds the sale of a closed tab
func (r *GormSaleRepository) FindByTab(ctx context.Context, tabID uuid.UUID) (*pos.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "tab_id = ?", tabID).Error; err != nil {
		return nil, findError(err, "SALE_NOT_FOUND", "sale of tab", tabID)
	}
	return r.toDomain(&model)
}

func (r *GormSaleRepository) toDomain(model *models.SaleModel) (*pos.Sale, error) {
	sale, err := model.ToDomain()
	if err != nil {
		return nil, shared.StorageError(err, "decode sale")
	}
	return sale, nil
}

// Create inserts a sale. A second sale for the same tab fails with
// AlreadyExists.
func (r *GormSaleRepository) Create(ctx context.Context, sale *pos.Sale) error {
	model, err := models.SaleModelFromDomain(sale)
	if err != nil {
		return shared.StorageError(err, "encode sale")
	}
	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error
	return writeError(err, "SALE_EXISTS", "create sale")
}

// CreatePayment inserts the payment record of a sale
func (r *GormSaleRepository) CreatePayment(ctx context.Context, payment *pos.PaymentRecord) error {
	err := r.db.WithContext(ctx).Create(models.PaymentRecordModelFromDomain(payment)).Error
	return writeError(err, "PAYMENT_EXISTS", "create payment record")
}
