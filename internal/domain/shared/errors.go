package shared

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error kinds. Specific errors are marked with one of these so callers can
// match the kind with errors.Is while still reading the specific code.
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation       = NewDomainError("VALIDATION_ERROR", "Validation failed")
	ErrInvalidNamespace = NewDomainError("INVALID_NAMESPACE", "Invalid tenant namespace")
	ErrTenantInactive   = NewDomainError("TENANT_INACTIVE", "Tenant is inactive")
	ErrStorage          = NewDomainError("STORAGE_ERROR", "Storage operation failed")
)

// kinds is ordered from most to least specific.
var kinds = []*DomainError{
	ErrInvalidNamespace,
	ErrTenantInactive,
	ErrValidation,
	ErrNotFound,
	ErrAlreadyExists,
	ErrStorage,
}

// NotFound returns an error with the given code marked as ErrNotFound
func NotFound(code, format string, args ...any) error {
	return errors.Mark(NewDomainError(code, fmt.Sprintf(format, args...)), ErrNotFound)
}

// Validation returns an error with the given code marked as ErrValidation
func Validation(code, format string, args ...any) error {
	return errors.Mark(NewDomainError(code, fmt.Sprintf(format, args...)), ErrValidation)
}

// AlreadyExists returns an error with the given code marked as ErrAlreadyExists
func AlreadyExists(code, format string, args ...any) error {
	return errors.Mark(NewDomainError(code, fmt.Sprintf(format, args...)), ErrAlreadyExists)
}

// InvalidNamespace returns an InvalidNamespace error carrying the reason
func InvalidNamespace(reason string) error {
	return errors.Mark(NewDomainError(ErrInvalidNamespace.Code, "invalid namespace: "+reason), ErrInvalidNamespace)
}

// TenantInactive returns an error for a tenant that exists but is deactivated
func TenantInactive(namespace string) error {
	return errors.Mark(NewDomainError(ErrTenantInactive.Code, fmt.Sprintf("tenant %s is inactive", namespace)), ErrTenantInactive)
}

// StorageError wraps a storage failure. Returns nil for a nil error.
func StorageError(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrStorage)
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a Validation error
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsInvalidNamespace reports whether err is an InvalidNamespace error
func IsInvalidNamespace(err error) bool { return errors.Is(err, ErrInvalidNamespace) }

// IsTenantInactive reports whether err is a TenantInactive error
func IsTenantInactive(err error) bool { return errors.Is(err, ErrTenantInactive) }

// IsAlreadyExists reports whether err is an AlreadyExists error
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsStorage reports whether err is a StorageError
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

// KindOf returns the kind sentinel err is marked with, or nil.
func KindOf(err error) *DomainError {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// MessageOf returns the most specific domain message in err's chain, falling
// back to the kind's generic message. Storage errors never expose driver text.
func MessageOf(err error) string {
	kind := KindOf(err)
	if kind == ErrStorage {
		return kind.Message
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	if kind != nil {
		return kind.Message
	}
	return "An unexpected error occurred"
}

// CodeOf returns the specific code in err's chain, or the kind's code.
func CodeOf(err error) string {
	kind := KindOf(err)
	if kind == ErrStorage {
		return kind.Code
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	if kind != nil {
		return kind.Code
	}
	return "INTERNAL_ERROR"
}
