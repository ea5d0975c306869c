package finance

import (
	"strings"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodLayout formats the calendar month a recurring instance belongs to
const PeriodLayout = "2006-01"

// Expense is an accounting entry of a partition. A row with IsRecurring and a
// RecurringDayOfMonth is a template; generated rows point back at it through
// RecurringTemplateID.
type Expense struct {
	shared.BaseEntity
	CategoryID          *uuid.UUID      `json:"category_id,omitempty"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Date                time.Time       `json:"date"`
	PaymentMethod       string          `json:"payment_method,omitempty"`
	Supplier            string          `json:"supplier,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	IsRecurring         bool            `json:"is_recurring"`
	RecurringDayOfMonth *int            `json:"recurring_day_of_month,omitempty"`
	RecurringTemplateID *uuid.UUID      `json:"recurring_template_id,omitempty"`
	RecurringPeriod     *string         `json:"recurring_period,omitempty"`
}

// ExpenseInput holds the user-editable fields of an expense
type ExpenseInput struct {
	CategoryID    *uuid.UUID
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	PaymentMethod string
	Supplier      string
	Notes         string
}

func (in ExpenseInput) validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return shared.Validation("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if !in.Amount.IsPositive() {
		return shared.Validation("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if in.Date.IsZero() {
		return shared.Validation("INVALID_DATE", "Expense date is required")
	}
	return nil
}

// NewExpense creates a one-off expense
func NewExpense(in ExpenseInput) (*Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return &Expense{
		BaseEntity:    shared.NewBaseEntity(),
		CategoryID:    in.CategoryID,
		Description:   strings.TrimSpace(in.Description),
		Amount:        in.Amount.Round(2),
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		Supplier:      in.Supplier,
		Notes:         in.Notes,
	}, nil
}

// NewRecurringTemplate creates an expense that spawns one instance per month
// on dayOfMonth.
func NewRecurringTemplate(in ExpenseInput, dayOfMonth int) (*Expense, error) {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return nil, shared.Validation("INVALID_RECURRING_DAY", "Recurring day of month must be between 1 and 31")
	}
	e, err := NewExpense(in)
	if err != nil {
		return nil, err
	}
	e.IsRecurring = true
	e.RecurringDayOfMonth = &dayOfMonth
	return e, nil
}

// IsTemplate reports whether the expense generates monthly instances
func (e *Expense) IsTemplate() bool {
	return e.IsRecurring && e.RecurringDayOfMonth != nil && e.RecurringTemplateID == nil
}

// DueOn reports whether the template fires on asOf's day of month
func (e *Expense) DueOn(asOf time.Time) bool {
	return e.IsTemplate() && *e.RecurringDayOfMonth == asOf.Day()
}

// Instantiate copies the template into a non-recurring expense dated asOf
func (e *Expense) Instantiate(asOf time.Time) (*Expense, error) {
	if !e.IsTemplate() {
		return nil, shared.Validation("NOT_A_TEMPLATE", "Expense %s is not a recurring template", e.ID)
	}
	if e.Amount.IsNegative() || strings.TrimSpace(e.Description) == "" {
		return nil, shared.Validation("MALFORMED_TEMPLATE", "Recurring template %s is malformed", e.ID)
	}
	templateID := e.ID
	period := Period(asOf)
	return &Expense{
		BaseEntity:          shared.NewBaseEntity(),
		CategoryID:          e.CategoryID,
		Description:         e.Description,
		Amount:              e.Amount,
		Date:                asOf,
		PaymentMethod:       e.PaymentMethod,
		Supplier:            e.Supplier,
		Notes:               e.Notes,
		IsRecurring:         false,
		RecurringTemplateID: &templateID,
		RecurringPeriod:     &period,
	}, nil
}

// MonthBounds returns [first day of t's month, first day of the next month)
// in t's location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Period is the YYYY-MM month key of t
func Period(t time.Time) string {
	return t.Format(PeriodLayout)
}
