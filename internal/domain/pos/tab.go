// Package pos models the point-of-sale flow of a restaurant partition: open
// tabs accumulate orders and close into an immutable Sale.
package pos

import (
	"strings"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryType is how a tab is served
type DeliveryType string

const (
	DeliveryTypeDineIn   DeliveryType = "dine_in"
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypeTakeout  DeliveryType = "takeout"
	DeliveryTypeCounter  DeliveryType = "counter"
)

// IsValid checks if the delivery type is known
func (d DeliveryType) IsValid() bool {
	switch d {
	case DeliveryTypeDineIn, DeliveryTypeDelivery, DeliveryTypeTakeout, DeliveryTypeCounter:
		return true
	}
	return false
}

// String returns the string representation of DeliveryType
func (d DeliveryType) String() string {
	return string(d)
}

// TabStatus is the state of a tab. Closed is terminal.
type TabStatus string

const (
	TabStatusOpen   TabStatus = "open"
	TabStatusClosed TabStatus = "closed"
)

// CanTransitionTo checks if the status can transition to the target status
func (s TabStatus) CanTransitionTo(target TabStatus) bool {
	return s == TabStatusOpen && target == TabStatusClosed
}

// Tab is a running bill
type Tab struct {
	shared.BaseEntity
	TableNumber   *int            `json:"table_number,omitempty"`
	ContactRef    *string         `json:"contact_ref,omitempty"`
	DeliveryType  DeliveryType    `json:"delivery_type"`
	Status        TabStatus       `json:"status"`
	RunningTotal  decimal.Decimal `json:"running_total"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
}

// TabLookup is the routing key used to find an existing open tab
type TabLookup struct {
	TableNumber  *int
	ContactRef   *string
	DeliveryType DeliveryType
}

// Normalize trims the contact reference. A blank reference becomes nil.
func (l TabLookup) Normalize() TabLookup {
	if l.ContactRef != nil {
		ref := strings.TrimSpace(*l.ContactRef)
		if ref == "" {
			l.ContactRef = nil
		} else {
			l.ContactRef = &ref
		}
	}
	return l
}

// Reusable reports whether tabs of this lookup's type can be matched to an
// existing open tab. Only dine-in (by table) and delivery (by contact) can.
func (l TabLookup) Reusable() bool {
	switch l.DeliveryType {
	case DeliveryTypeDineIn:
		return l.TableNumber != nil
	case DeliveryTypeDelivery:
		return l.Normalize().ContactRef != nil
	}
	return false
}

// Validate checks the routing key for a new tab
func (l TabLookup) Validate() error {
	if !l.DeliveryType.IsValid() {
		return shared.Validation("INVALID_DELIVERY_TYPE", "Delivery type %q is not supported", l.DeliveryType)
	}
	if l.DeliveryType == DeliveryTypeDineIn {
		if l.TableNumber == nil {
			return shared.Validation("TABLE_NUMBER_REQUIRED", "Dine-in tabs require a table number")
		}
		if *l.TableNumber <= 0 {
			return shared.Validation("INVALID_TABLE_NUMBER", "Table number must be positive")
		}
	}
	if l.DeliveryType == DeliveryTypeDelivery && l.Normalize().ContactRef == nil {
		return shared.Validation("CONTACT_REF_REQUIRED", "Delivery tabs require a contact reference")
	}
	return nil
}

// NewTab opens a new tab with a zero running total
func NewTab(lookup TabLookup) (*Tab, error) {
	lookup = lookup.Normalize()
	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	tab := &Tab{
		BaseEntity:   shared.NewBaseEntity(),
		DeliveryType: lookup.DeliveryType,
		Status:       TabStatusOpen,
		RunningTotal: decimal.Zero,
	}
	if lookup.TableNumber != nil {
		n := *lookup.TableNumber
		tab.TableNumber = &n
	}
	if lookup.ContactRef != nil {
		ref := *lookup.ContactRef
		tab.ContactRef = &ref
	}
	return tab, nil
}

// IsOpen reports whether the tab still accepts orders
func (t *Tab) IsOpen() bool {
	return t.Status == TabStatusOpen
}

// EnsureOpen returns TAB_NOT_OPEN if the tab was already closed
func (t *Tab) EnsureOpen() error {
	if !t.IsOpen() {
		return shared.NotFound("TAB_NOT_OPEN", "Tab %s is not open", t.ID)
	}
	return nil
}

// Close moves the tab to closed. The caller persists the change with a
// conditional update so a concurrent close cannot succeed twice.
func (t *Tab) Close(paymentMethod string, at time.Time) error {
	if !t.Status.CanTransitionTo(TabStatusClosed) {
		return t.EnsureOpen()
	}
	t.Status = TabStatusClosed
	t.PaymentMethod = paymentMethod
	t.ClosedAt = &at
	t.UpdatedAt = at
	return nil
}
