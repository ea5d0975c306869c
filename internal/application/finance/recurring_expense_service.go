package finance

import (
	"context"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/finance"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

const resourceExpenses = "expenses"

// ExpenseScope gives access to the expense repository of a tenant namespace
type ExpenseScope interface {
	Read(ctx context.Context, namespace string, fn func(expenses finance.ExpenseRepository) error) error
	Execute(ctx context.Context, namespace string, fn func(expenses finance.ExpenseRepository) error) error
}

// TenantLister enumerates the tenants a batch job runs for
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Tenant, error)
}

// TenantFailure is the error a single tenant ended with
type TenantFailure struct {
	Namespace string
	Err       error
}

// RunSummary reports one run of the recurring expense job
type RunSummary struct {
	AsOf     time.Time
	Tenants  int
	Created  int
	Skipped  int
	Failures []TenantFailure
}

// Failed returns the number of tenants that ended with an error
func (s RunSummary) Failed() int {
	return len(s.Failures)
}

// RecurringExpenseService generates the monthly instances of recurring
// expense templates for every active tenant.
type RecurringExpenseService struct {
	tenants  TenantLister
	scope    ExpenseScope
	cache    *cache.Cache
	metrics  *metrics.Metrics
	logger   *zap.Logger
	location *time.Location
}

// NewRecurringExpenseService creates a new RecurringExpenseService. Days are
// evaluated in loc; a nil loc keeps asOf's own location.
func NewRecurringExpenseService(
	tenants TenantLister,
	scope ExpenseScope,
	c *cache.Cache,
	m *metrics.Metrics,
	loc *time.Location,
	logger *zap.Logger,
) *RecurringExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurringExpenseService{
		tenants:  tenants,
		scope:    scope,
		cache:    c,
		metrics:  m,
		logger:   logger.Named("recurring_expenses"),
		location: loc,
	}
}

// RunOnce creates, for every active tenant, the instances of templates due
// on asOf's day of month that were not generated yet this month. Running it
// again for the same date creates nothing.
//
// A failure to list tenants is returned. Failures inside a tenant, panics
// included, are logged and reported in the summary; the other tenants still
// run.
func (s *RecurringExpenseService) RunOnce(ctx context.Context, asOf time.Time) (RunSummary, error) {
	if s.location != nil {
		asOf = asOf.In(s.location)
	}
	summary := RunSummary{AsOf: asOf}

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to list active tenants")
		s.metrics.RecurringRun(err, 0, 0, 0)
		return summary, err
	}
	summary.Tenants = len(tenants)

	for _, t := range tenants {
		if err := ctx.Err(); err != nil {
			summary.Failures = append(summary.Failures, TenantFailure{Namespace: t.Namespace, Err: err})
			continue
		}
		tctx := logger.WithTenantNamespace(ctx, t.Namespace)

		var created, skipped int
		var runErr error
		var pc panics.Catcher
		pc.Try(func() {
			created, skipped, runErr = s.runTenant(tctx, t.Namespace, asOf)
		})
		if recovered := pc.Recovered(); recovered != nil {
			runErr = recovered.AsError()
		}

		summary.Created += created
		summary.Skipped += skipped
		if created > 0 {
			s.cache.Invalidate(tctx, cache.Keyspace(t.Namespace).Pattern(resourceExpenses))
		}
		if runErr != nil {
			summary.Failures = append(summary.Failures, TenantFailure{Namespace: t.Namespace, Err: runErr})
			logger.L(tctx).Error("Recurring expenses failed for tenant", zap.Error(runErr))
		}
	}

	s.metrics.RecurringRun(nil, summary.Created, summary.Skipped, summary.Failed())
	s.logger.Info("Recurring expense run finished",
		zap.String("as_of", asOf.Format(time.DateOnly)),
		zap.Int("tenants", summary.Tenants),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed()),
	)
	return summary, nil
}

// runTenant handles one partition. Template failures do not stop the other
// templates; they are combined into the returned error.
func (s *RecurringExpenseService) runTenant(ctx context.Context, namespace string, asOf time.Time) (created, skipped int, err error) {
	var templates []finance.Expense
	if err := s.scope.Read(ctx, namespace, func(expenses finance.ExpenseRepository) error {
		var err error
		templates, err = expenses.FindDueTemplates(ctx, asOf.Day())
		return err
	}); err != nil {
		return 0, 0, err
	}
	templates = lo.Filter(templates, func(e finance.Expense, _ int) bool { return e.DueOn(asOf) })

	from, to := finance.MonthBounds(asOf)
	for i := range templates {
		template := &templates[i]
		made, tplErr := s.instantiate(ctx, namespace, template, asOf, from, to)
		switch {
		case tplErr != nil:
			err = errors.CombineErrors(err, errors.Wrapf(tplErr, "template %s", template.ID))
		case made:
			created++
		default:
			skipped++
		}
	}
	return created, skipped, err
}

// instantiate creates this month's instance of template unless it exists.
// A duplicate key means another run created it first.
func (s *RecurringExpenseService) instantiate(ctx context.Context, namespace string, template *finance.Expense, asOf, from, to time.Time) (bool, error) {
	created := false
	err := s.scope.Execute(ctx, namespace, func(expenses finance.ExpenseRepository) error {
		exists, err := expenses.HasInstanceBetween(ctx, template.ID, from, to)
		if err != nil || exists {
			return err
		}
		instance, err := template.Instantiate(asOf)
		if err != nil {
			return err
		}
		if err := expenses.Create(ctx, instance); err != nil {
			return err
		}
		created = true
		logger.L(ctx).Info("Recurring expense created",
			zap.String("template_id", template.ID.String()),
			zap.String("expense_id", instance.ID.String()),
			zap.String("period", finance.Period(asOf)),
		)
		return nil
	})
	if shared.IsAlreadyExists(err) {
		return false, nil
	}
	return created, err
}
