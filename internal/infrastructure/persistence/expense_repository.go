package persistence

import (
	"context"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/finance"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "EXPENSE_NOT_FOUND", "expense", id)
	}
	return model.ToDomain(), nil
}

// FindDueTemplates returns the recurring templates scheduled on day
func (r *GormExpenseRepository) FindDueTemplates(ctx context.Context, day int) ([]finance.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ? AND recurring_day_of_month = ? AND recurring_template_id IS NULL", true, day).
		Order("created_at ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, shared.StorageError(err, "find due recurring templates")
	}
	return lo.Map(expenseModels, func(m models.ExpenseModel, _ int) finance.Expense {
		return *m.ToDomain()
	}), nil
}

// HasInstanceBetween reports whether templateID generated an expense dated in [from, to)
func (r *GormExpenseRepository) HasInstanceBetween(ctx context.Context, templateID uuid.UUID, from, to time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("recurring_template_id = ? AND date >= ? AND date < ?", templateID, from, to).
		Count(&count).Error; err != nil {
		return false, shared.StorageError(err, "check recurring instance")
	}
	return count > 0, nil
}

// Create inserts an expense. A second instance of the same template in the
// same period fails with AlreadyExists.
func (r *GormExpenseRepository) Create(ctx context.Context, e *finance.Expense) error {
	err := r.db.WithContext(ctx).Create(models.ExpenseModelFromDomain(e)).Error
	return writeError(err, "RECURRING_INSTANCE_EXISTS", "create expense")
}
