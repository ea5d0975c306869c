package pos

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages the products orders are priced from
type CatalogService struct {
	scope  PartitionScope
	cache  *cache.Cache
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(scope PartitionScope, c *cache.Cache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{scope: scope, cache: c, logger: logger.Named("catalog_service")}
}

// CreateProduct adds a product to the catalog
func (s *CatalogService) CreateProduct(ctx context.Context, namespace string, in CreateProductInput) (*pos.Product, error) {
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	product, err := pos.NewProduct(in.Name, price, in.CategoryID)
	if err != nil {
		return nil, err
	}
	product.Description = in.Description

	if err := s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		return repos.Products().Save(ctx, product)
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, namespace)
	return product, nil
}

// UpdateProductPrice changes the catalog price of a product. Orders already
// placed keep the price they were taken at.
func (s *CatalogService) UpdateProductPrice(ctx context.Context, namespace string, id uuid.UUID, in UpdatePriceInput) (*pos.Product, error) {
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	var product *pos.Product
	err = s.scope.Execute(ctx, namespace, func(repos Repositories) error {
		var err error
		product, err = repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := product.UpdatePrice(price); err != nil {
			return err
		}
		return repos.Products().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, namespace)
	s.logger.Info("Product price updated",
		zap.String("tenant_namespace", namespace),
		zap.String("product_id", id.String()),
		zap.String("price", product.Price.StringFixed(pos.MoneyPlaces)),
	)
	return product, nil
}

// GetProduct returns a product by its ID
func (s *CatalogService) GetProduct(ctx context.Context, namespace string, id uuid.UUID) (*pos.Product, error) {
	key := cache.Keyspace(namespace).Key(resourceProducts, id.String())
	return cache.GetOrLoad(ctx, s.cache, key, 0, func(ctx context.Context) (*pos.Product, error) {
		var product *pos.Product
		err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
			var err error
			product, err = repos.Products().FindByID(ctx, id)
			return err
		})
		return product, err
	})
}

// ListProducts returns the catalog ordered by name
func (s *CatalogService) ListProducts(ctx context.Context, namespace string) ([]pos.Product, error) {
	key := cache.Keyspace(namespace).Key(resourceProducts, "list")
	return cache.GetOrLoad(ctx, s.cache, key, 0, func(ctx context.Context) ([]pos.Product, error) {
		var products []pos.Product
		err := s.scope.Read(ctx, namespace, func(repos Repositories) error {
			var err error
			products, err = repos.Products().List(ctx)
			return err
		})
		return products, err
	})
}

func (s *CatalogService) invalidate(ctx context.Context, namespace string) {
	s.cache.Invalidate(ctx, cache.Keyspace(namespace).Pattern(resourceProducts))
}

func parsePrice(v any) (decimal.Decimal, error) {
	d, err := pos.ToDecimal(v)
	if err != nil {
		return decimal.Zero, shared.Validation("INVALID_PRICE", "price: %s", err.Error())
	}
	return d, nil
}
