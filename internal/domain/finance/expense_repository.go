package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExpenseRepository persists expenses inside one partition
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	// FindDueTemplates returns templates whose recurring day equals day
	FindDueTemplates(ctx context.Context, day int) ([]Expense, error)
	// HasInstanceBetween reports whether templateID already generated an
	// instance dated in [from, to).
	HasInstanceBetween(ctx context.Context, templateID uuid.UUID, from, to time.Time) (bool, error)
	Create(ctx context.Context, e *Expense) error
}
