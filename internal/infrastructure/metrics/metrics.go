// Package metrics exposes the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurante"

// Metrics holds every collector the service records into
type Metrics struct {
	RequestCounter      *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	CacheRequests       *prometheus.CounterVec
	CacheErrors         *prometheus.CounterVec
	CacheAvailable      prometheus.Gauge
	TenantHandles       prometheus.Gauge
	NamespaceOperations *prometheus.CounterVec
	TabsClosed          *prometheus.CounterVec
	SalesTotal          prometheus.Counter
	RecurringRuns       *prometheus.CounterVec
	RecurringExpenses   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by resource and result (hit, miss, unavailable)",
			},
			[]string{"resource", "result"},
		),
		CacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Cache backend errors by operation",
			},
			[]string{"operation"},
		),
		CacheAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_available",
			Help:      "1 when the cache backend is connected",
		}),
		TenantHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tenant_handles",
			Help:      "Number of cached tenant data-access handles",
		}),
		NamespaceOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "namespace_operations_total",
				Help:      "Administrative namespace operations by kind and result",
			},
			[]string{"operation", "result"},
		),
		TabsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tabs_closed_total",
				Help:      "Tabs closed into a sale by payment method",
			},
			[]string{"payment_method"},
		),
		SalesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_amount_total",
			Help:      "Sum of closed sale totals",
		}),
		RecurringRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recurring_expense_runs_total",
				Help:      "Recurring expense job runs by result",
			},
			[]string{"result"},
		),
		RecurringExpenses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recurring_expenses_total",
				Help:      "Recurring expense outcomes: templates created or skipped, tenants failed",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.CacheRequests,
		m.CacheErrors,
		m.CacheAvailable,
		m.TenantHandles,
		m.NamespaceOperations,
		m.TabsClosed,
		m.SalesTotal,
		m.RecurringRuns,
		m.RecurringExpenses,
	)
	return m
}

// CacheLookup records the result of a cache read
func (m *Metrics) CacheLookup(resource, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(resource, result).Inc()
}

// CacheError records a backend error
func (m *Metrics) CacheError(operation string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(operation).Inc()
}

// SetCacheAvailable flips the availability gauge
func (m *Metrics) SetCacheAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.CacheAvailable.Set(1)
	} else {
		m.CacheAvailable.Set(0)
	}
}

// SetTenantHandles records the size of the handle registry
func (m *Metrics) SetTenantHandles(n int) {
	if m == nil {
		return
	}
	m.TenantHandles.Set(float64(n))
}

// NamespaceOperation records a create/drop of a partition
func (m *Metrics) NamespaceOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.NamespaceOperations.WithLabelValues(operation, result(err)).Inc()
}

// TabClosed records a closed tab and its sale total. method must come from a
// bounded set.
func (m *Metrics) TabClosed(method string, total float64) {
	if m == nil {
		return
	}
	m.TabsClosed.WithLabelValues(method).Inc()
	m.SalesTotal.Add(total)
}

// RecurringRun records one job run and its per-template outcomes
func (m *Metrics) RecurringRun(err error, created, skipped, failed int) {
	if m == nil {
		return
	}
	m.RecurringRuns.WithLabelValues(result(err)).Inc()
	m.RecurringExpenses.WithLabelValues("created").Add(float64(created))
	m.RecurringExpenses.WithLabelValues("skipped").Add(float64(skipped))
	m.RecurringExpenses.WithLabelValues("failed").Add(float64(failed))
}

// GinMiddleware records request counts and latency by route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
