package tenant

import (
	"context"
	"fmt"

	tenantdomain "github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/models"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect knows how a database engine represents a tenant partition
type Dialect interface {
	// Name is the config driver name
	Name() string
	// Dialector opens a gorm dialector on an existing connection pool
	Dialector(conn gorm.ConnPool) gorm.Dialector
	// TablePrefix is prepended to every table name of the partition
	TablePrefix(namespace string) string
	CreateNamespace(ctx context.Context, db *gorm.DB, namespace string) error
	DropNamespace(ctx context.Context, db *gorm.DB, namespace string) error
}

// DialectFor returns the dialect of a configured driver
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	}
	return nil, errors.Newf("unsupported database driver %q", driver)
}

// Postgres maps a namespace to a schema of the same name
type Postgres struct{}

// Name implements Dialect
func (Postgres) Name() string { return "postgres" }

// Dialector implements Dialect
func (Postgres) Dialector(conn gorm.ConnPool) gorm.Dialector {
	return postgres.New(postgres.Config{Conn: conn})
}

// TablePrefix implements Dialect. gorm quotes each dotted part separately,
// so "tenant_x.tabs" becomes "tenant_x"."tabs".
func (Postgres) TablePrefix(namespace string) string {
	return namespace + "."
}

// CreateNamespace implements Dialect
func (Postgres) CreateNamespace(ctx context.Context, db *gorm.DB, namespace string) error {
	stmt, err := createSchemaSQL(namespace)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(stmt).Error
}

// DropNamespace implements Dialect
func (Postgres) DropNamespace(ctx context.Context, db *gorm.DB, namespace string) error {
	stmt, err := dropSchemaSQL(namespace)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(stmt).Error
}

func createSchemaSQL(namespace string) (string, error) {
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return "", err
	}
	return "CREATE SCHEMA " + pq.QuoteIdentifier(namespace), nil
}

func dropSchemaSQL(namespace string) (string, error) {
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return "", err
	}
	return "DROP SCHEMA " + pq.QuoteIdentifier(namespace) + " CASCADE", nil
}

// SQLite has no schemas. Partition tables share the database file and are
// told apart by a "<namespace>__" prefix. Table names never contain a double
// underscore, so two namespaces cannot produce the same table name.
type SQLite struct{}

// Name implements Dialect
func (SQLite) Name() string { return "sqlite" }

// Dialector implements Dialect
func (SQLite) Dialector(conn gorm.ConnPool) gorm.Dialector {
	return &sqlite.Dialector{Conn: conn}
}

// TablePrefix implements Dialect
func (SQLite) TablePrefix(namespace string) string {
	return namespace + "__"
}

// CreateNamespace implements Dialect. Tables are created by the migration
// that follows; this only refuses to reuse an existing partition.
func (d SQLite) CreateNamespace(ctx context.Context, db *gorm.DB, namespace string) error {
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return err
	}
	exists, err := d.exists(ctx, db, namespace)
	if err != nil {
		return err
	}
	if exists {
		return errors.Newf("namespace %s already exists", namespace)
	}
	return nil
}

// DropNamespace implements Dialect
func (d SQLite) DropNamespace(ctx context.Context, db *gorm.DB, namespace string) error {
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return err
	}
	exists, err := d.exists(ctx, db, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Newf("namespace %s does not exist", namespace)
	}
	prefix := d.TablePrefix(namespace)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range lo.Reverse(append([]string(nil), models.TenantTableNames...)) {
			if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", tx.Statement.Quote(prefix+table))).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d SQLite) exists(ctx context.Context, db *gorm.DB, namespace string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", d.TablePrefix(namespace)+"tabs").
		Scan(&count).Error
	return count > 0, err
}
