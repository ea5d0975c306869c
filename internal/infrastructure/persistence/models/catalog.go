package models

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

// CategoryModel groups products on the menu
type CategoryModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
	Active      bool   `gorm:"not null"`
}

// TableName returns the partition-scoped table name
func (CategoryModel) TableName(namer schema.Namer) string {
	return namer.TableName("categories")
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Available   bool            `gorm:"not null"`

	Variations []ProductVariationModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Additions  []ProductAdditionModel  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the partition-scoped table name
func (ProductModel) TableName(namer schema.Namer) string {
	return namer.TableName("products")
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *pos.Product {
	return &pos.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price.Round(pos.MoneyPlaces),
		Available:   m.Available,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *pos.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.CategoryID = p.CategoryID
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Available = p.Available
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *pos.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductVariationModel is a size or flavour of a product with its own price delta
type ProductVariationModel struct {
	BaseModel
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(100);not null"`
	PriceDelta decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the partition-scoped table name
func (ProductVariationModel) TableName(namer schema.Namer) string {
	return namer.TableName("product_variations")
}

// ProductAdditionModel is an extra that can be added to a product
type ProductAdditionModel struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(100);not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the partition-scoped table name
func (ProductAdditionModel) TableName(namer schema.Namer) string {
	return namer.TableName("product_additions")
}
