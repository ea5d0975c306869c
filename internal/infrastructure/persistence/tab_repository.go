package persistence

import (
	"context"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTabRepository implements pos.TabRepository using GORM
type GormTabRepository struct {
	db *gorm.DB
}

// NewGormTabRepository creates a new GormTabRepository
func NewGormTabRepository(db *gorm.DB) *GormTabRepository {
	return &GormTabRepository{db: db}
}

// FindByID finds a tab by its ID
func (r *GormTabRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Tab, error) {
	var model models.TabModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "TAB_NOT_FOUND", "tab", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a tab and locks its row with SELECT ... FOR UPDATE
func (r *GormTabRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*pos.Tab, error) {
	var model models.TabModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "TAB_NOT_FOUND", "tab", id)
	}
	return model.ToDomain(), nil
}

// FindOpen finds the oldest open tab matching lookup. Only dine-in and
// delivery lookups can match.
func (r *GormTabRepository) FindOpen(ctx context.Context, lookup pos.TabLookup) (*pos.Tab, error) {
	lookup = lookup.Normalize()
	if !lookup.Reusable() {
		return nil, shared.NotFound("TAB_NOT_FOUND", "no reusable tab for %s", lookup.DeliveryType)
	}
	query := r.db.WithContext(ctx).
		Where("delivery_type = ? AND status = ?", lookup.DeliveryType, pos.TabStatusOpen)
	if lookup.DeliveryType == pos.DeliveryTypeDineIn {
		query = query.Where("table_number = ?", *lookup.TableNumber)
	} else {
		query = query.Where("contact_ref = ?", *lookup.ContactRef)
	}

	var model models.TabModel
	if err := query.Order("created_at ASC").First(&model).Error; err != nil {
		return nil, findError(err, "TAB_NOT_FOUND", "open tab", lookup.DeliveryType)
	}
	return model.ToDomain(), nil
}

// ListOpen returns every open tab, oldest first
func (r *GormTabRepository) ListOpen(ctx context.Context) ([]pos.Tab, error) {
	var tabModels []models.TabModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", pos.TabStatusOpen).
		Order("created_at ASC").
		Find(&tabModels).Error; err != nil {
		return nil, shared.StorageError(err, "list open tabs")
	}
	return lo.Map(tabModels, func(m models.TabModel, _ int) pos.Tab {
		return *m.ToDomain()
	}), nil
}

// Create inserts a new tab. A second open dine-in tab for the same table
// fails with AlreadyExists.
func (r *GormTabRepository) Create(ctx context.Context, tab *pos.Tab) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(models.TabModelFromDomain(tab)).Error
	return writeError(err, "OPEN_TAB_EXISTS", "create tab")
}

// AddToRunningTotal adds amount to running_total in a single statement
func (r *GormTabRepository) AddToRunningTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TabModel{}).
		Where("id = ? AND status = ?", id, pos.TabStatusOpen).
		Updates(map[string]any{
			"running_total": gorm.Expr("running_total + ?", amount),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, shared.StorageError(result.Error, "update running total")
	}
	return result.RowsAffected > 0, nil
}

// MarkClosed persists the closed state of tab if it is still open
func (r *GormTabRepository) MarkClosed(ctx context.Context, tab *pos.Tab) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TabModel{}).
		Where("id = ? AND status = ?", tab.ID, pos.TabStatusOpen).
		Updates(map[string]any{
			"status":         tab.Status,
			"payment_method": tab.PaymentMethod,
			"closed_at":      tab.ClosedAt,
			"updated_at":     tab.UpdatedAt,
		})
	if result.Error != nil {
		return false, shared.StorageError(result.Error, "close tab")
	}
	return result.RowsAffected > 0, nil
}
