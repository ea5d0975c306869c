package persistence

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

// findError maps gorm.ErrRecordNotFound to a NotFound error carrying code and
// wraps every other failure as a storage error.
func findError(err error, code, what string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(code, "%s %v not found", what, key)
	}
	return shared.StorageError(err, "find "+what)
}

// writeError maps a unique violation to AlreadyExists carrying code and wraps
// every other failure as a storage error.
func writeError(err error, code, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.AlreadyExists(code, "%s: duplicate key", op)
	}
	return shared.StorageError(err, op)
}
