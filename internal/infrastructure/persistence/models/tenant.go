package models

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
)

// TenantModel is the directory row of a tenant
type TenantModel struct {
	BaseModel
	Namespace string `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(200);not null"`
	Active    bool   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *tenant.Tenant {
	return &tenant.Tenant{
		BaseEntity: m.BaseModel.ToDomain(),
		Namespace:  m.Namespace,
		Name:       m.Name,
		Active:     m.Active,
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Namespace = t.Namespace
	m.Name = t.Name
	m.Active = t.Active
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}
