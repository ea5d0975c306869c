package tenant

import (
	"context"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// Handle is the storage entry point of one namespace. Do and Transaction are
// the only ways to reach the partition and both count as in-flight work for
// Pool.CloseAll.
type Handle struct {
	namespace string
	db        *gorm.DB
	pool      *Pool
}

// Namespace returns the namespace the handle is bound to
func (h *Handle) Namespace() string {
	return h.namespace
}

// Do runs fn with a session bound to ctx
func (h *Handle) Do(ctx context.Context, fn func(db *gorm.DB) error) error {
	release, err := h.pool.acquire()
	if err != nil {
		return err
	}
	defer release()
	return fn(h.session(ctx))
}

// Transaction runs fn in a database transaction. It commits when fn returns
// nil and rolls back otherwise; fn's error is returned unchanged.
func (h *Handle) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	release, err := h.pool.acquire()
	if err != nil {
		return err
	}
	defer release()
	return h.session(ctx).Transaction(fn)
}

func (h *Handle) session(ctx context.Context) *gorm.DB {
	if logger.GetTenantNamespace(ctx) == "" {
		ctx = logger.WithTenantNamespace(ctx, h.namespace)
	}
	return h.db.WithContext(ctx)
}
