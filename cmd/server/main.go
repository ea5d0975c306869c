package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apppos "github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	financeapp "github.com/TOMBRITO1979/restaurante-sub001/internal/application/finance"
	tenantapp "github.com/TOMBRITO1979/restaurante-sub001/internal/application/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/auth"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/cache"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/scheduler"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/telemetry"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/handler"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/router"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting restaurant backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}

	ctx := context.Background()
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	if err := checkDirectory(ctx, cfg, db, tenantRepo); err != nil {
		log.Fatal("Tenant directory is not ready", zap.Error(err))
	}

	poolOpts := []tenant.Option{tenant.WithLogger(log), tenant.WithMetrics(m)}
	if tracerProvider.IsEnabled() && cfg.Telemetry.DBTrace {
		poolOpts = append(poolOpts, tenant.WithTracing())
	}
	pool, err := db.NewPool(poolOpts...)
	if err != nil {
		log.Fatal("Failed to create tenant pool", zap.Error(err))
	}
	migrateTenants(ctx, tenantRepo, pool, log)

	c := cache.NewFromConfig(cfg.Redis, cfg.Cache, cache.WithLogger(log), cache.WithMetrics(m))
	if cfg.Cache.Enabled && !c.Connect(ctx) {
		log.Warn("Cache unavailable at startup, serving from the database")
	}

	tenants := tenantapp.NewService(tenantRepo, pool, cfg.Cache.TenantLookupTTL, log)
	posScope := persistence.NewGormPOSScope(pool)
	tabService := apppos.NewTabService(posScope, c, m, log)
	catalogService := apppos.NewCatalogService(posScope, c, log)

	r := router.NewRouter(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracerProvider.IsEnabled(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Deps{
		Logger:   log,
		Metrics:  m,
		Gatherer: registry,
		Tokens:   auth.NewTokenService(cfg.Auth),
		Tenants:  tenants,
		System:   handler.NewSystemHandler(sqlDB, c, version),
	})
	r.Register(handler.NewTabHandler(tabService)).
		Register(handler.NewProductHandler(catalogService))
	engine, err := r.Engine()
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	var trigger *scheduler.DailyTrigger
	if cfg.Scheduler.Enabled {
		trigger, err = newRecurringTrigger(cfg, tenants, pool, c, m, log)
		if err != nil {
			log.Fatal("Failed to configure recurring expense trigger", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start recurring expense trigger", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// teardown must not hang the process
	watchdog := time.AfterFunc(cfg.App.ShutdownTimeout, func() {
		log.Error("Shutdown timed out, forcing exit", zap.Duration("timeout", cfg.App.ShutdownTimeout))
		_ = log.Sync()
		os.Exit(1)
	})
	defer watchdog.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Recurring expense trigger did not stop cleanly", zap.Error(err))
		}
	}
	if err := c.Close(); err != nil {
		log.Error("Error closing cache", zap.Error(err))
	}
	if err := pool.CloseAll(shutdownCtx); err != nil {
		log.Error("Error closing tenant pool", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// checkDirectory makes sure the tenants table exists. SQLite development
// databases are migrated in place; Postgres must have been migrated with
// tenantctl migrate-directory.
func checkDirectory(ctx context.Context, cfg *config.Config, db *persistence.Database, repo *persistence.GormTenantRepository) error {
	if cfg.Database.Driver == "sqlite" {
		return repo.AutoMigrate(ctx)
	}
	if !db.DB.WithContext(ctx).Migrator().HasTable("tenants") {
		return errors.New("tenants table missing, run tenantctl migrate-directory")
	}
	return nil
}

// migrateTenants brings every registered partition up to the current table
// set. A failing tenant is logged and skipped.
func migrateTenants(ctx context.Context, repo *persistence.GormTenantRepository, pool *tenant.Pool, log *zap.Logger) {
	tenants, err := repo.List(ctx)
	if err != nil {
		log.Error("Failed to list tenants for migration", zap.Error(err))
		return
	}
	for _, t := range tenants {
		if err := pool.MigrateNamespace(ctx, t.Namespace); err != nil {
			log.Error("Failed to migrate tenant partition", logger.TenantField(t.Namespace), zap.Error(err))
		}
	}
}

func newRecurringTrigger(
	cfg *config.Config,
	tenants *tenantapp.Service,
	pool *tenant.Pool,
	c *cache.Cache,
	m *metrics.Metrics,
	log *zap.Logger,
) (*scheduler.DailyTrigger, error) {
	triggerCfg, err := scheduler.DailyTriggerConfigFrom(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	recurring := financeapp.NewRecurringExpenseService(
		tenants, persistence.NewGormExpenseScope(pool), c, m, triggerCfg.Location, log)
	job := func(ctx context.Context, asOf time.Time) error {
		_, err := recurring.RunOnce(ctx, asOf)
		return err
	}
	return scheduler.NewDailyTrigger(triggerCfg, job, log)
}
