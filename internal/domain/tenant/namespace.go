// Package tenant holds the tenant directory entity and the namespace rules
// that guard every partition-level operation.
package tenant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
)

// MaxNamespaceLength is the identifier limit of the storage engine.
const MaxNamespaceLength = 63

// NamespacePrefix is required on every tenant namespace.
const NamespacePrefix = "tenant_"

var namespacePattern = regexp.MustCompile(`^tenant_[a-z0-9_]+$`)

// reservedNamespaces are system schemas/databases of the storage engines we
// run on. Compared case-insensitively.
var reservedNamespaces = map[string]struct{}{
	"public":             {},
	"information_schema": {},
	"pg_catalog":         {},
	"pg_toast":           {},
	"pg_temp":            {},
	"pg_toast_temp":      {},
	"pg_global":          {},
	"pg_default":         {},
	"postgres":           {},
	"template0":          {},
	"template1":          {},
	"main":               {},
	"temp":               {},
}

// ValidateNamespace checks name against the namespace grammar and the
// reserved-word blocklist. It must run before any statement that references
// the namespace is built.
func ValidateNamespace(name string) error {
	if name == "" {
		return shared.InvalidNamespace("namespace is empty")
	}
	if len(name) > MaxNamespaceLength {
		return shared.InvalidNamespace(fmt.Sprintf("namespace exceeds %d characters", MaxNamespaceLength))
	}
	if _, reserved := reservedNamespaces[strings.ToLower(name)]; reserved {
		return shared.InvalidNamespace(fmt.Sprintf("namespace %q is reserved", name))
	}
	if !namespacePattern.MatchString(name) {
		return shared.InvalidNamespace(fmt.Sprintf("namespace must match %s", namespacePattern.String()))
	}
	return nil
}

// IsValidNamespace is the boolean form of ValidateNamespace
func IsValidNamespace(name string) bool {
	return ValidateNamespace(name) == nil
}

// NamespaceFromSlug derives a namespace from a free-form operator slug, e.g.
// "Acme Grill" -> "tenant_acme_grill". The result still has to pass
// ValidateNamespace.
func NamespaceFromSlug(slug string) string {
	var b strings.Builder
	b.WriteString(NamespacePrefix)
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(slug)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
