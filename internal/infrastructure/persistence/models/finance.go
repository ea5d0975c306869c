package models

import (
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

// ExpenseCategoryModel classifies expenses
type ExpenseCategoryModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(100);not null"`
	Color  string `gorm:"type:varchar(20)"`
	Active bool   `gorm:"not null"`
}

// TableName returns the partition-scoped table name
func (ExpenseCategoryModel) TableName(namer schema.Namer) string {
	return namer.TableName("expense_categories")
}

// ExpenseModel is the persistence model for the Expense domain entity.
// Templates and generated instances share the table; the
// (recurring_template_id, recurring_period) unique index is created by
// TenantIndexes.
type ExpenseModel struct {
	BaseModel
	CategoryID          *uuid.UUID      `gorm:"type:uuid;index"`
	Description         string          `gorm:"type:varchar(500);not null"`
	Amount              decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Date                time.Time       `gorm:"type:date;not null;index"`
	PaymentMethod       string          `gorm:"type:varchar(30)"`
	Supplier            string          `gorm:"type:varchar(200)"`
	Notes               string          `gorm:"type:text"`
	IsRecurring         bool            `gorm:"not null;index"`
	RecurringDayOfMonth *int            `gorm:"index"`
	RecurringTemplateID *uuid.UUID      `gorm:"type:uuid;index"`
	RecurringPeriod     *string         `gorm:"type:varchar(7)"`
}

// TableName returns the partition-scoped table name
func (ExpenseModel) TableName(namer schema.Namer) string {
	return namer.TableName("expenses")
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseEntity:          m.BaseModel.ToDomain(),
		CategoryID:          m.CategoryID,
		Description:         m.Description,
		Amount:              m.Amount.Round(2),
		Date:                m.Date,
		PaymentMethod:       m.PaymentMethod,
		Supplier:            m.Supplier,
		Notes:               m.Notes,
		IsRecurring:         m.IsRecurring,
		RecurringDayOfMonth: m.RecurringDayOfMonth,
		RecurringTemplateID: m.RecurringTemplateID,
		RecurringPeriod:     m.RecurringPeriod,
	}
}

// FromDomain populates the persistence model from a domain Expense entity.
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.CategoryID = e.CategoryID
	m.Description = e.Description
	m.Amount = e.Amount
	m.Date = e.Date
	m.PaymentMethod = e.PaymentMethod
	m.Supplier = e.Supplier
	m.Notes = e.Notes
	m.IsRecurring = e.IsRecurring
	m.RecurringDayOfMonth = e.RecurringDayOfMonth
	m.RecurringTemplateID = e.RecurringTemplateID
	m.RecurringPeriod = e.RecurringPeriod
}

// ExpenseModelFromDomain creates a new persistence model from domain.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}
