package pos

import (
	"strings"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the kitchen status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderItemInput is one requested line as received from the caller. Quantity
// and UnitPrice are left untyped and coerced with ToDecimal. ProductName and
// UnitPrice may be omitted when ProductID points at a catalog product.
type OrderItemInput struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	Quantity    any        `json:"quantity"`
	UnitPrice   any        `json:"unit_price,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// OrderLine is a coerced OrderItemInput. UnitPrice is nil when it still has
// to be taken from the catalog.
type OrderLine struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
	Notes       string
}

// Complete reports whether the line carries its own name and price snapshot
func (l OrderLine) Complete() bool {
	return l.ProductName != "" && l.UnitPrice != nil
}

// ParseOrderItems coerces every input. It fails on the first malformed item
// so nothing is written for a partially valid order.
func ParseOrderItems(inputs []OrderItemInput) ([]OrderLine, error) {
	if len(inputs) == 0 {
		return nil, shared.Validation("EMPTY_ORDER", "Order must contain at least one item")
	}
	lines := make([]OrderLine, 0, len(inputs))
	for i, in := range inputs {
		line := OrderLine{
			ProductID:   in.ProductID,
			ProductName: strings.TrimSpace(in.ProductName),
			Notes:       in.Notes,
		}
		qty, err := ToDecimal(in.Quantity)
		if err != nil {
			return nil, shared.Validation("INVALID_QUANTITY", "Item %d: invalid quantity: %s", i+1, err.Error())
		}
		if !qty.IsPositive() {
			return nil, shared.Validation("INVALID_QUANTITY", "Item %d: quantity must be positive", i+1)
		}
		line.Quantity = qty

		if in.UnitPrice != nil {
			price, err := ToDecimal(in.UnitPrice)
			if err != nil {
				return nil, shared.Validation("INVALID_PRICE", "Item %d: invalid unit price: %s", i+1, err.Error())
			}
			if price.IsNegative() {
				return nil, shared.Validation("INVALID_PRICE", "Item %d: unit price cannot be negative", i+1)
			}
			line.UnitPrice = &price
		}
		if !line.Complete() && line.ProductID == nil {
			return nil, shared.Validation("INCOMPLETE_ITEM", "Item %d: product name and unit price are required without a product id", i+1)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// OrderItem is a line of an order. ProductName and UnitPrice are snapshots
// taken when the order was placed.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Order is a batch of items sent to the kitchen for one tab
type Order struct {
	shared.BaseEntity
	TabID       uuid.UUID   `json:"tab_id"`
	Status      OrderStatus `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	Items       []OrderItem `json:"items"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
}

// NewOrder builds a pending order from complete lines
func NewOrder(tabID uuid.UUID, lines []OrderLine, notes string) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.Validation("EMPTY_ORDER", "Order must contain at least one item")
	}
	order := &Order{
		BaseEntity: shared.NewBaseEntity(),
		TabID:      tabID,
		Status:     OrderStatusPending,
		Notes:      notes,
		Items:      make([]OrderItem, 0, len(lines)),
	}
	for i, line := range lines {
		if !line.Complete() {
			return nil, shared.Validation("INCOMPLETE_ITEM", "Item %d: product name and unit price are required", i+1)
		}
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   *line.UnitPrice,
			TotalPrice:  LineTotal(*line.UnitPrice, line.Quantity),
			Notes:       line.Notes,
			CreatedAt:   order.CreatedAt,
		})
	}
	return order, nil
}

// Total is the sum of item totals, the amount added to the tab
func (o *Order) Total() decimal.Decimal {
	return lo.Reduce(o.Items, func(acc decimal.Decimal, item OrderItem, _ int) decimal.Decimal {
		return acc.Add(item.TotalPrice)
	}, decimal.Zero)
}

// MarkDelivered moves the order to delivered. Returns false if it already was.
func (o *Order) MarkDelivered(at time.Time) bool {
	if o.Status == OrderStatusDelivered {
		return false
	}
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &at
	o.UpdatedAt = at
	return true
}
