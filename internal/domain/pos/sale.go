package pos

import (
	"strings"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentMethod values the front desk offers. Free-form methods are accepted
// on close as long as they are not blank.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCredit = "credit_card"
	PaymentMethodDebit  = "debit_card"
	PaymentMethodPix    = "pix"
	PaymentMethodOther  = "other"
)

var knownPaymentMethods = []string{PaymentMethodCash, PaymentMethodCredit, PaymentMethodDebit, PaymentMethodPix}

// PaymentMethodLabel folds a payment method into a bounded set: one of the
// known methods, or PaymentMethodOther.
func PaymentMethodLabel(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	if lo.Contains(knownPaymentMethods, m) {
		return m
	}
	return PaymentMethodOther
}

// CloseRequest carries the caller's input for closing a tab
type CloseRequest struct {
	PaymentMethod string
	Rates         Rates
	AmountPaid    decimal.Decimal
}

// Validate checks the close request before any storage access
func (r CloseRequest) Validate() error {
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return shared.Validation("PAYMENT_METHOD_REQUIRED", "Payment method is required to close a tab")
	}
	if r.AmountPaid.IsNegative() {
		return shared.Validation("INVALID_AMOUNT_PAID", "Amount paid cannot be negative")
	}
	return r.Rates.Validate()
}

// SaleOrder is the frozen copy of an order inside a sale
type SaleOrder struct {
	OrderID   uuid.UUID   `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	Items     []SaleItem  `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// SaleItem is the frozen copy of an order item inside a sale
type SaleItem struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Notes       string          `json:"notes,omitempty"`
}

// SnapshotOrders freezes orders and their items for a sale
func SnapshotOrders(orders []Order) []SaleOrder {
	return lo.Map(orders, func(o Order, _ int) SaleOrder {
		return SaleOrder{
			OrderID:   o.ID,
			Status:    o.Status,
			Notes:     o.Notes,
			CreatedAt: o.CreatedAt,
			Items: lo.Map(o.Items, func(it OrderItem, _ int) SaleItem {
				return SaleItem{
					ProductID:   it.ProductID,
					ProductName: it.ProductName,
					Quantity:    it.Quantity,
					UnitPrice:   it.UnitPrice,
					TotalPrice:  it.TotalPrice,
					Notes:       it.Notes,
				}
			}),
		}
	})
}

// Sale is the immutable financial record of a closed tab. There is exactly
// one per tab.
type Sale struct {
	ID             uuid.UUID       `json:"id"`
	TabID          uuid.UUID       `json:"tab_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TipRate        decimal.Decimal `json:"tip_rate"`
	TipAmount      decimal.Decimal `json:"tip_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	ChangeAmount   decimal.Decimal `json:"change_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Items          []SaleOrder     `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	ClosedAt       time.Time       `json:"closed_at"`
}

// NewSale computes the sale for an open tab and its orders
func NewSale(tab *Tab, orders []Order, req CloseRequest, closedAt time.Time) (*Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := tab.EnsureOpen(); err != nil {
		return nil, err
	}
	totals := ComputeTotals(tab.RunningTotal, req.Rates, req.AmountPaid)
	return &Sale{
		ID:             uuid.New(),
		TabID:          tab.ID,
		Subtotal:       totals.Subtotal,
		DiscountRate:   totals.DiscountRate,
		DiscountAmount: totals.DiscountAmount,
		TipRate:        totals.TipRate,
		TipAmount:      totals.TipAmount,
		TaxRate:        totals.TaxRate,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		AmountPaid:     totals.AmountPaid,
		ChangeAmount:   totals.ChangeAmount,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		Items:          SnapshotOrders(orders),
		CreatedAt:      closedAt,
		ClosedAt:       closedAt,
	}, nil
}

// PaymentRecord logs the payment taken for a sale
type PaymentRecord struct {
	ID           uuid.UUID       `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewPaymentRecord records the payment side of a sale
func NewPaymentRecord(sale *Sale) *PaymentRecord {
	return &PaymentRecord{
		ID:           uuid.New(),
		SaleID:       sale.ID,
		Method:       sale.PaymentMethod,
		Amount:       sale.Total,
		AmountPaid:   sale.AmountPaid,
		ChangeAmount: sale.ChangeAmount,
		CreatedAt:    sale.ClosedAt,
	}
}
