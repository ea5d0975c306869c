package tenant

import (
	"context"
	"strings"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Tenant is one restaurant operator and its partition.
type Tenant struct {
	shared.BaseEntity
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}

// NewTenant creates an active tenant for a validated namespace
func NewTenant(namespace, name string) (*Tenant, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.Validation("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.Validation("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}
	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Namespace:  namespace,
		Name:       name,
		Active:     true,
	}, nil
}

// Deactivate suspends the tenant. Its partition is kept.
func (t *Tenant) Deactivate() {
	t.Active = false
	t.Touch()
}

// Activate re-enables a suspended tenant
func (t *Tenant) Activate() {
	t.Active = true
	t.Touch()
}

// Repository persists tenants in the shared directory
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByNamespace(ctx context.Context, namespace string) (*Tenant, error)
	ListActive(ctx context.Context) ([]Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}
