package pos

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale of every stored amount
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// LineTotal is unitPrice × quantity in cents
func LineTotal(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(quantity))
}

// Percent returns rate% of amount in cents
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(rate).Div(hundred))
}

// Rates are the percentages applied when a tab is closed
type Rates struct {
	Discount decimal.Decimal
	Tip      decimal.Decimal
	Tax      decimal.Decimal
}

// Validate checks that every rate is a percentage between 0 and 100
func (r Rates) Validate() error {
	checks := []struct {
		name string
		rate decimal.Decimal
	}{{"discount", r.Discount}, {"tip", r.Tip}, {"tax", r.Tax}}
	for _, c := range checks {
		if c.rate.IsNegative() || c.rate.GreaterThan(hundred) {
			return shared.Validation("INVALID_RATE", "%s rate must be between 0 and 100", c.name)
		}
	}
	return nil
}

// Totals is the full breakdown of a closed tab
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	TipRate        decimal.Decimal
	TipAmount      decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	ChangeAmount   decimal.Decimal
}

// ComputeTotals derives discount, tip, tax, total and change from the tab
// subtotal. Change is only computed when something was paid and never goes
// below zero.
func ComputeTotals(subtotal decimal.Decimal, rates Rates, amountPaid decimal.Decimal) Totals {
	t := Totals{
		Subtotal:     RoundMoney(subtotal),
		DiscountRate: rates.Discount,
		TipRate:      rates.Tip,
		TaxRate:      rates.Tax,
		AmountPaid:   RoundMoney(amountPaid),
		ChangeAmount: decimal.Zero,
	}
	t.DiscountAmount = Percent(t.Subtotal, rates.Discount)
	t.TipAmount = Percent(t.Subtotal, rates.Tip)
	t.TaxAmount = Percent(t.Subtotal, rates.Tax)
	t.Total = t.Subtotal.Sub(t.DiscountAmount).Add(t.TipAmount).Add(t.TaxAmount)
	if t.AmountPaid.IsPositive() {
		t.ChangeAmount = decimal.Max(t.AmountPaid.Sub(t.Total), decimal.Zero)
	}
	return t
}
