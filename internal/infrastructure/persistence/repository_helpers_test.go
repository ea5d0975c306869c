package persistence

import (
	"context"
	"testing"

	"github.com/TOMBRITO1979/restaurante-sub001/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testNamespace = "tenant_repo"

// newTenantDB returns a session on a freshly created partition
func newTenantDB(t *testing.T) *gorm.DB {
	t.Helper()

	pool := testutil.NewTenantPool(t, testNamespace)
	h, err := pool.GetHandle(testNamespace)
	require.NoError(t, err)

	var db *gorm.DB
	require.NoError(t, h.Do(context.Background(), func(s *gorm.DB) error {
		db = s
		return nil
	}))
	return db
}
