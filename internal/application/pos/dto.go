package pos

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FindOrCreateTabInput identifies the tab an order is routed to
type FindOrCreateTabInput struct {
	TableNumber  *int    `json:"table_number"`
	ContactRef   *string `json:"contact_ref"`
	DeliveryType string  `json:"delivery_type" binding:"required,delivery_type"`
}

func (in FindOrCreateTabInput) lookup() pos.TabLookup {
	return pos.TabLookup{
		TableNumber:  in.TableNumber,
		ContactRef:   in.ContactRef,
		DeliveryType: pos.DeliveryType(in.DeliveryType),
	}.Normalize()
}

// AddOrderInput is a batch of items for a tab
type AddOrderInput struct {
	Items []pos.OrderItemInput `json:"items"`
	Notes string               `json:"notes"`
}

// CloseTabInput carries payment and rates for closing a tab. Rates and the
// amount paid accept any numeric representation; a missing value is zero.
type CloseTabInput struct {
	PaymentMethod string `json:"payment_method"`
	DiscountRate  any    `json:"discount_rate"`
	TipRate       any    `json:"tip_rate"`
	TaxRate       any    `json:"tax_rate"`
	AmountPaid    any    `json:"amount_paid"`
}

type numericField struct {
	name  string
	value any
	dst   *decimal.Decimal
}

func (in CloseTabInput) request() (pos.CloseRequest, error) {
	req := pos.CloseRequest{PaymentMethod: in.PaymentMethod}
	fields := []numericField{
		{"discount_rate", in.DiscountRate, &req.Rates.Discount},
		{"tip_rate", in.TipRate, &req.Rates.Tip},
		{"tax_rate", in.TaxRate, &req.Rates.Tax},
		{"amount_paid", in.AmountPaid, &req.AmountPaid},
	}
	for _, f := range fields {
		if f.value == nil {
			*f.dst = decimal.Zero
			continue
		}
		d, err := pos.ToDecimal(f.value)
		if err != nil {
			return req, shared.Validation("INVALID_NUMBER", "%s: %s", f.name, err.Error())
		}
		*f.dst = d
	}
	return req, req.Validate()
}

// TabDetails is a tab with its orders
type TabDetails struct {
	pos.Tab
	Orders []pos.Order `json:"orders"`
}

// CreateProductInput describes a new catalog product
type CreateProductInput struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Price       any        `json:"price" binding:"required"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

// UpdatePriceInput carries a new catalog price
type UpdatePriceInput struct {
	Price any `json:"price" binding:"required"`
}
