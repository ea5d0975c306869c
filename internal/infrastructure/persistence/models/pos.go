package models

import (
	"encoding/json"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

// TabModel is the persistence model for the Tab domain entity.
type TabModel struct {
	BaseModel
	TableNumber   *int             `gorm:"index"`
	ContactRef    *string          `gorm:"type:varchar(100);index"`
	DeliveryType  pos.DeliveryType `gorm:"type:varchar(20);not null"`
	Status        pos.TabStatus    `gorm:"type:varchar(20);not null;index"`
	RunningTotal  decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0"`
	PaymentMethod string           `gorm:"type:varchar(30)"`
	ClosedAt      *time.Time

	Orders []OrderModel `gorm:"foreignKey:TabID;constraint:OnDelete:CASCADE"`
}

// TableName returns the partition-scoped table name
func (TabModel) TableName(namer schema.Namer) string {
	return namer.TableName("tabs")
}

// ToDomain converts the persistence model to a domain Tab entity.
func (m *TabModel) ToDomain() *pos.Tab {
	return &pos.Tab{
		BaseEntity:    m.BaseModel.ToDomain(),
		TableNumber:   m.TableNumber,
		ContactRef:    m.ContactRef,
		DeliveryType:  m.DeliveryType,
		Status:        m.Status,
		RunningTotal:  m.RunningTotal.Round(pos.MoneyPlaces),
		PaymentMethod: m.PaymentMethod,
		ClosedAt:      m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain Tab entity.
func (m *TabModel) FromDomain(t *pos.Tab) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.TableNumber = t.TableNumber
	m.ContactRef = t.ContactRef
	m.DeliveryType = t.DeliveryType
	m.Status = t.Status
	m.RunningTotal = t.RunningTotal
	m.PaymentMethod = t.PaymentMethod
	m.ClosedAt = t.ClosedAt
}

// TabModelFromDomain creates a new persistence model from a domain Tab entity.
func TabModelFromDomain(t *pos.Tab) *TabModel {
	m := &TabModel{}
	m.FromDomain(t)
	return m
}

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	TabID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status      pos.OrderStatus `gorm:"type:varchar(20);not null"`
	Notes       string          `gorm:"type:text"`
	DeliveredAt *time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the partition-scoped table name
func (OrderModel) TableName(namer schema.Namer) string {
	return namer.TableName("orders")
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *pos.Order {
	return &pos.Order{
		BaseEntity:  m.BaseModel.ToDomain(),
		TabID:       m.TabID,
		Status:      m.Status,
		Notes:       m.Notes,
		DeliveredAt: m.DeliveredAt,
		Items: lo.Map(m.Items, func(item OrderItemModel, _ int) pos.OrderItem {
			return item.ToDomain()
		}),
	}
}

// FromDomain populates the persistence model and its items from a domain Order.
func (m *OrderModel) FromDomain(o *pos.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TabID = o.TabID
	m.Status = o.Status
	m.Notes = o.Notes
	m.DeliveredAt = o.DeliveredAt
	m.Items = lo.Map(o.Items, func(item pos.OrderItem, _ int) OrderItemModel {
		return OrderItemModelFromDomain(item)
	})
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *pos.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is one line of an order
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the partition-scoped table name
func (OrderItemModel) TableName(namer schema.Namer) string {
	return namer.TableName("order_items")
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m OrderItemModel) ToDomain() pos.OrderItem {
	return pos.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice.Round(pos.MoneyPlaces),
		TotalPrice:  m.TotalPrice.Round(pos.MoneyPlaces),
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(item pos.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
		Notes:       item.Notes,
		CreatedAt:   item.CreatedAt,
	}
}

// SaleModel is the persistence model for the Sale domain entity. Items holds
// the JSON snapshot of the tab's orders at close time.
type SaleModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	TabID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountRate   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TipRate        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	TipAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	ChangeAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PaymentMethod  string          `gorm:"type:varchar(30);not null"`
	Items          string          `gorm:"type:jsonb"`
	CreatedAt      time.Time       `gorm:"not null"`
	ClosedAt       time.Time       `gorm:"not null;index"`

	Payments []PaymentRecordModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the partition-scoped table name
func (SaleModel) TableName(namer schema.Namer) string {
	return namer.TableName("sales")
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() (*pos.Sale, error) {
	var items []pos.SaleOrder
	if m.Items != "" {
		if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
			return nil, errors.Wrapf(err, "decode items of sale %s", m.ID)
		}
	}
	return &pos.Sale{
		ID:             m.ID,
		TabID:          m.TabID,
		Subtotal:       m.Subtotal.Round(pos.MoneyPlaces),
		DiscountRate:   m.DiscountRate.Round(pos.MoneyPlaces),
		DiscountAmount: m.DiscountAmount.Round(pos.MoneyPlaces),
		TipRate:        m.TipRate.Round(pos.MoneyPlaces),
		TipAmount:      m.TipAmount.Round(pos.MoneyPlaces),
		TaxRate:        m.TaxRate.Round(pos.MoneyPlaces),
		TaxAmount:      m.TaxAmount.Round(pos.MoneyPlaces),
		Total:          m.Total.Round(pos.MoneyPlaces),
		AmountPaid:     m.AmountPaid.Round(pos.MoneyPlaces),
		ChangeAmount:   m.ChangeAmount.Round(pos.MoneyPlaces),
		PaymentMethod:  m.PaymentMethod,
		Items:          items,
		CreatedAt:      m.CreatedAt,
		ClosedAt:       m.ClosedAt,
	}, nil
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *pos.Sale) (*SaleModel, error) {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return nil, errors.Wrapf(err, "encode items of sale %s", s.ID)
	}
	return &SaleModel{
		ID:             s.ID,
		TabID:          s.TabID,
		Subtotal:       s.Subtotal,
		DiscountRate:   s.DiscountRate,
		DiscountAmount: s.DiscountAmount,
		TipRate:        s.TipRate,
		TipAmount:      s.TipAmount,
		TaxRate:        s.TaxRate,
		TaxAmount:      s.TaxAmount,
		Total:          s.Total,
		AmountPaid:     s.AmountPaid,
		ChangeAmount:   s.ChangeAmount,
		PaymentMethod:  s.PaymentMethod,
		Items:          string(items),
		CreatedAt:      s.CreatedAt,
		ClosedAt:       s.ClosedAt,
	}, nil
}

// PaymentRecordModel logs the payment taken for a sale
type PaymentRecordModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method       string          `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AmountPaid   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	ChangeAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the partition-scoped table name
func (PaymentRecordModel) TableName(namer schema.Namer) string {
	return namer.TableName("payment_records")
}

// PaymentRecordModelFromDomain creates a new persistence model from a domain PaymentRecord.
func PaymentRecordModelFromDomain(p *pos.PaymentRecord) *PaymentRecordModel {
	return &PaymentRecordModel{
		ID:           p.ID,
		SaleID:       p.SaleID,
		Method:       p.Method,
		Amount:       p.Amount,
		AmountPaid:   p.AmountPaid,
		ChangeAmount: p.ChangeAmount,
		CreatedAt:    p.CreatedAt,
	}
}
