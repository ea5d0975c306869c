package pos_test

import (
	"testing"

	apppos "github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence"
	"github.com/TOMBRITO1979/restaurante-sub001/tests/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	nsAcme  = "tenant_acme"
	nsOther = "tenant_other"
)

type fixture struct {
	tabs    *apppos.TabService
	catalog *apppos.CatalogService
	cache   *cache.Cache
	redis   *miniredis.Miniredis
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := testutil.NewTenantPool(t, nsAcme, nsOther)
	scope := persistence.NewGormPOSScope(pool)
	mr, c := testutil.NewCache(t)
	m := metrics.New(prometheus.NewRegistry())
	return &fixture{
		tabs:    apppos.NewTabService(scope, c, m, nil),
		catalog: apppos.NewCatalogService(scope, c, nil),
		cache:   c,
		redis:   mr,
		metrics: m,
	}
}

func intPtr(n int) *int { return &n }
func strPtr(s string) *string { return &s }
