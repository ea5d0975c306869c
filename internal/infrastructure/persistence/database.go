package persistence

import (
	"strings"
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the root connection shared by the tenant directory and
// every tenant partition.
type Database struct {
	DB      *gorm.DB
	Dialect tenant.Dialect
}

// NewDatabase opens the configured database and applies pool settings
func NewDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger) (*Database, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	dialect, err := tenant.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{
		Logger:                 logger.NewSQLLogger(zapLogger.Named("sql"), logger.SQLLevel(cfg.LogLevel), cfg.SlowQuery),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	if dialect.Name() == "sqlite" {
		// one writer at a time; also keeps a ":memory:" database alive
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &Database{DB: db, Dialect: dialect}, nil
}

func openDialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		return sqlite.Open(sqliteDSN(cfg.SQLitePath))
	}
	return postgres.Open(cfg.DSN())
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// NewPool creates the tenant pool on this database's connections
func (d *Database) NewPool(opts ...tenant.Option) (*tenant.Pool, error) {
	return tenant.NewPool(d.DB, d.Dialect, opts...)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
