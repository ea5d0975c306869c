package cache

import (
	"fmt"
	"strings"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
)

// Separator joins key segments
const Separator = ":"

// Keys builds cache keys for one tenant. Every key and pattern starts with
// the tenant namespace.
type Keys struct {
	namespace string
}

// Keyspace returns the key builder of a tenant namespace
func Keyspace(namespace string) Keys {
	return Keys{namespace: namespace}
}

// Namespace returns the tenant namespace of the keyspace
func (k Keys) Namespace() string {
	return k.namespace
}

// Key returns {namespace}:{resource}[:{qualifier}...]
func (k Keys) Key(resource string, qualifiers ...string) string {
	parts := make([]string, 0, 2+len(qualifiers))
	parts = append(parts, k.namespace, resource)
	parts = append(parts, qualifiers...)
	return strings.Join(parts, Separator)
}

// Pattern returns the glob matching every key of a resource
func (k Keys) Pattern(resource string) string {
	return k.namespace + Separator + resource + Separator + "*"
}

// checkKey rejects keys whose first segment is not a valid namespace or
// whose resource segment is empty or contains glob characters.
func checkKey(key string) error {
	parts := strings.SplitN(key, Separator, 3)
	if len(parts) < 2 {
		return fmt.Errorf("cache key %q has no resource segment", key)
	}
	if err := tenant.ValidateNamespace(parts[0]); err != nil {
		return err
	}
	if parts[1] == "" || strings.ContainsAny(parts[1], "*?[]\\") {
		return fmt.Errorf("cache key %q has an invalid resource segment", key)
	}
	return nil
}

// resourceOf returns the resource segment of a checked key
func resourceOf(key string) string {
	parts := strings.SplitN(key, Separator, 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
