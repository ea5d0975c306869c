package pos

import (
	"strings"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry used to fill order snapshots
type Product struct {
	shared.BaseEntity
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

// NewProduct creates an available product
func NewProduct(name string, price decimal.Decimal, categoryID *uuid.UUID) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.Validation("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.Validation("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return nil, shared.Validation("INVALID_PRICE", "Price cannot be negative")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		CategoryID: categoryID,
		Name:       name,
		Price:      RoundMoney(price),
		Available:  true,
	}, nil
}

// UpdatePrice changes the catalog price. Existing order items keep the price
// they were sold at.
func (p *Product) UpdatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.Validation("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = RoundMoney(price)
	p.Touch()
	return nil
}

// FillLine completes a line with this product's name and current price
func (p *Product) FillLine(line OrderLine) OrderLine {
	if line.ProductName == "" {
		line.ProductName = p.Name
	}
	if line.UnitPrice == nil {
		price := p.Price
		line.UnitPrice = &price
	}
	return line
}
