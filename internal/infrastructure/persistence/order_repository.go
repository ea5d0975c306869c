package persistence

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormOrderRepository implements pos.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "ORDER_NOT_FOUND", "order", id)
	}
	return model.ToDomain(), nil
}

// FindByTab returns the orders of a tab with their items, oldest first
func (r *GormOrderRepository) FindByTab(ctx context.Context, tabID uuid.UUID) ([]pos.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("tab_id = ?", tabID).
		Order("created_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, shared.StorageError(err, "list orders of tab")
	}
	return lo.Map(orderModels, func(m models.OrderModel, _ int) pos.Order {
		return *m.ToDomain()
	}), nil
}

// Create inserts the order and its items
func (r *GormOrderRepository) Create(ctx context.Context, order *pos.Order) error {
	err := r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error
	return writeError(err, "ORDER_EXISTS", "create order")
}

// MarkDelivered persists the delivered state of order if it is still pending
func (r *GormOrderRepository) MarkDelivered(ctx context.Context, order *pos.Order) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", order.ID, pos.OrderStatusPending).
		Updates(map[string]any{
			"status":       order.Status,
			"delivered_at": order.DeliveredAt,
			"updated_at":   order.UpdatedAt,
		})
	if result.Error != nil {
		return false, shared.StorageError(result.Error, "mark order delivered")
	}
	return result.RowsAffected > 0, nil
}
