package pos

import (
	"context"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Cache resources owned by the POS services
const (
	resourceTabs     = "tabs"
	resourceSales    = "sales"
	resourceProducts = "products"
)

// TabService handles the tab lifecycle: routing orders to open tabs, adding
// orders and closing tabs into sales.
type TabService struct {
	scope   PartitionScope
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewTabService creates a new TabService. cache and m may be nil.
func NewTabService(scope PartitionScope, c *cache.Cache, m *metrics.Metrics, logger *zap.Logger) *TabService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TabService{
		scope:   scope,
		cache:   c,
		metrics: m,
		logger:  logger.Named("tab_service"),
		now:     time.Now,
	}
}

// FindOrCreate returns the open tab matching the input or opens a new one.
// Dine-in tabs match by table, delivery tabs by contact; takeout and counter
// always open a new tab.
func (s *TabService) FindOrCreate(ctx context.Context, namespace string, in FindOrCreateTabInput) (*pos.Tab, error) {
	lookup := in.lookup()
	if err := lookup.Validate(); err != nil {
		return nil, err
	}

	if lookup.Reusable() {
		existing, err := s.findOpen(ctx, namespace, lookup)
		if err == nil || !shared.IsNotFound(err) {
			return existing, err
		}
	}

	tab, err := pos.NewTab(lookup)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		return repos.Tabs().Create(ctx, tab)
	})
	if shared.IsAlreadyExists(err) && lookup.Reusable() {
		// lost the race on the open-table index; the winner's tab is the one to use
		return s.findOpen(ctx, namespace, lookup)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, namespace, resourceTabs)
	logger.L(ctx).Info("Tab opened",
		zap.String("tab_id", tab.ID.String()),
		zap.String("delivery_type", tab.DeliveryType.String()),
	)
	return tab, nil
}

func (s *TabService) findOpen(ctx context.Context, namespace string, lookup pos.TabLookup) (*pos.Tab, error) {
	var tab *pos.Tab
	err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
		var err error
		tab, err = repos.Tabs().FindOpen(ctx, lookup)
		return err
	})
	return tab, err
}

// AddOrder records an order on an open tab and adds its total to the tab's
// running total. Items without a name or price take them from the catalog.
// Every item is validated before anything is written.
func (s *TabService) AddOrder(ctx context.Context, namespace string, tabID uuid.UUID, in AddOrderInput) (*pos.Order, error) {
	lines, err := pos.ParseOrderItems(in.Items)
	if err != nil {
		return nil, err
	}

	var order *pos.Order
	err = s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		tab, err := repos.Tabs().FindByID(ctx, tabID)
		if err != nil {
			return err
		}
		if err := tab.EnsureOpen(); err != nil {
			return err
		}

		lines, err = fillFromCatalog(ctx, repos.Products(), lines)
		if err != nil {
			return err
		}
		order, err = pos.NewOrder(tabID, lines, in.Notes)
		if err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		updated, err := repos.Tabs().AddToRunningTotal(ctx, tabID, order.Total())
		if err != nil {
			return err
		}
		if !updated {
			return tab.EnsureOpen()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, namespace, resourceTabs)
	logger.L(ctx).Info("Order added",
		zap.String("tab_id", tabID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total().StringFixed(pos.MoneyPlaces)),
	)
	return order, nil
}

// fillFromCatalog completes lines that reference a catalog product
func fillFromCatalog(ctx context.Context, products pos.ProductRepository, lines []pos.OrderLine) ([]pos.OrderLine, error) {
	incomplete := lo.Filter(lines, func(l pos.OrderLine, _ int) bool { return !l.Complete() })
	if len(incomplete) == 0 {
		return lines, nil
	}

	ids := lo.Map(incomplete, func(l pos.OrderLine, _ int) uuid.UUID { return *l.ProductID })
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(found, func(p pos.Product) uuid.UUID { return p.ID })

	filled := make([]pos.OrderLine, len(lines))
	for i, line := range lines {
		if line.Complete() {
			filled[i] = line
			continue
		}
		product, ok := byID[*line.ProductID]
		if !ok {
			return nil, shared.NotFound("PRODUCT_NOT_FOUND", "Item %d: product %s not found", i+1, *line.ProductID)
		}
		if !product.Available {
			return nil, shared.Validation("PRODUCT_UNAVAILABLE", "Item %d: product %s is not available", i+1, product.Name)
		}
		filled[i] = product.FillLine(line)
	}
	return filled, nil
}

// MarkDelivered marks an order as delivered. Delivering twice is not an error.
func (s *TabService) MarkDelivered(ctx context.Context, namespace string, orderID uuid.UUID) (*pos.Order, error) {
	var order *pos.Order
	err := s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.MarkDelivered(s.now()) {
			return nil
		}
		_, err = repos.Orders().MarkDelivered(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, namespace, resourceTabs)
	return order, nil
}

// Close settles an open tab. In one transaction it locks the tab, snapshots
// its orders into a Sale, records the payment and moves the tab to closed.
func (s *TabService) Close(ctx context.Context, namespace string, tabID uuid.UUID, in CloseTabInput) (*pos.Sale, error) {
	req, err := in.request()
	if err != nil {
		return nil, err
	}

	var sale *pos.Sale
	err = s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		tab, err := repos.Tabs().FindByIDForUpdate(ctx, tabID)
		if err != nil {
			return err
		}
		orders, err := repos.Orders().FindByTab(ctx, tabID)
		if err != nil {
			return err
		}

		closedAt := s.now()
		sale, err = pos.NewSale(tab, orders, req, closedAt)
		if err != nil {
			return err
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			if shared.IsAlreadyExists(err) {
				return shared.NotFound("TAB_NOT_OPEN", "Tab %s is not open", tabID)
			}
			return err
		}
		if err := repos.Sales().CreatePayment(ctx, pos.NewPaymentRecord(sale)); err != nil {
			return err
		}

		if err := tab.Close(sale.PaymentMethod, closedAt); err != nil {
			return err
		}
		closed, err := repos.Tabs().MarkClosed(ctx, tab)
		if err != nil {
			return err
		}
		if !closed {
			return shared.NotFound("TAB_NOT_OPEN", "Tab %s is not open", tabID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, namespace, resourceTabs, resourceSales)
	s.metrics.TabClosed(pos.PaymentMethodLabel(sale.PaymentMethod), sale.Total.InexactFloat64())
	logger.L(ctx).Info("Tab closed",
		zap.String("tab_id", tabID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("payment_method", sale.PaymentMethod),
		zap.String("total", sale.Total.StringFixed(pos.MoneyPlaces)),
	)
	return sale, nil
}

// GetTab returns a tab with its orders
func (s *TabService) GetTab(ctx context.Context, namespace string, tabID uuid.UUID) (*TabDetails, error) {
	key := cache.Keyspace(namespace).Key(resourceTabs, tabID.String())
	return cache.GetOrLoad(ctx, s.cache, key, 0, func(ctx context.Context) (*TabDetails, error) {
		var details *TabDetails
		err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
			tab, err := repos.Tabs().FindByID(ctx, tabID)
			if err != nil {
				return err
			}
			orders, err := repos.Orders().FindByTab(ctx, tabID)
			if err != nil {
				return err
			}
			details = &TabDetails{Tab: *tab, Orders: orders}
			return nil
		})
		return details, err
	})
}

// ListOpenTabs returns the open tabs of a partition, oldest first
func (s *TabService) ListOpenTabs(ctx context.Context, namespace string) ([]pos.Tab, error) {
	key := cache.Keyspace(namespace).Key(resourceTabs, "open")
	return cache.GetOrLoad(ctx, s.cache, key, 0, func(ctx context.Context) ([]pos.Tab, error) {
		var tabs []pos.Tab
		err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
			var err error
			tabs, err = repos.Tabs().ListOpen(ctx)
			return err
		})
		return tabs, err
	})
}

// GetSale returns a sale by its ID
func (s *TabService) GetSale(ctx context.Context, namespace string, saleID uuid.UUID) (*pos.Sale, error) {
	key := cache.Keyspace(namespace).Key(resourceSales, saleID.String())
	return cache.GetOrLoad(ctx, s.cache, key, 0, func(ctx context.Context) (*pos.Sale, error) {
		var sale *pos.Sale
		err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
			var err error
			sale, err = repos.Sales().FindByID(ctx, saleID)
			return err
		})
		return sale, err
	})
}

func (s *TabService) invalidate(ctx context.Context, namespace string, resources ...string) {
	keys := cache.Keyspace(namespace)
	for _, r := range resources {
		s.cache.Invalidate(ctx, keys.Pattern(r))
	}
}
