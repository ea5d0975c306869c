// Command tenantctl administers the tenant directory: directory migrations,
// tenant provisioning, bearer tokens and manual recurring expense runs.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	financeapp "github.com/TOMBRITO1979/restaurante-sub001/internal/application/finance"
	tenantapp "github.com/TOMBRITO1979/restaurante-sub001/internal/application/tenant"
	tenantdomain "github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/auth"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/migration"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/persistence/tenant"
	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := run(context.Background(), cfg, log, args[0], args[1:]); err != nil {
		log.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, command string, args []string) error {
	switch command {
	case "migrate-directory":
		return migrateDirectory(ctx, cfg, log, args)
	case "token":
		return issueToken(cfg, args)
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	pool, err := db.NewPool(tenant.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = pool.CloseAll(ctx) }()

	repo := persistence.NewGormTenantRepository(db.DB)
	tenants := tenantapp.NewService(repo, pool, 0, log)

	switch command {
	case "create":
		if len(args) != 2 {
			return errors.New("usage: tenantctl create <namespace|slug> <name>")
		}
		t, err := tenants.Provision(ctx, namespaceArg(args[0]), args[1])
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", t.Namespace, t.ID)
	case "deactivate", "activate":
		if len(args) != 1 {
			return errors.Newf("usage: tenantctl %s <namespace>", command)
		}
		change := tenants.Deactivate
		if command == "activate" {
			change = tenants.Activate
		}
		t, err := change(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s active=%t\n", t.Namespace, t.Active)
	case "drop":
		if len(args) != 1 {
			return errors.New("usage: tenantctl drop <namespace>")
		}
		if err := tenants.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("dropped %s\n", args[0])
	case "list":
		return listTenants(ctx, tenants)
	case "run-recurring":
		return runRecurring(ctx, cfg, tenants, pool, log, args)
	default:
		printUsage()
		return errors.Newf("unknown command %q", command)
	}
	return nil
}

// namespaceArg accepts either a namespace or a free-form slug such as
// "Acme Grill", which becomes tenant_acme_grill.
func namespaceArg(arg string) string {
	if tenantdomain.IsValidNamespace(arg) {
		return arg
	}
	return tenantdomain.NamespaceFromSlug(arg)
}

// issueToken prints a bearer token for a namespace, signed with the
// configured secret. Meant for operators and local testing.
func issueToken(cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: tenantctl token <namespace|slug> [subject]")
	}
	namespace := namespaceArg(args[0])
	if err := tenantdomain.ValidateNamespace(namespace); err != nil {
		return err
	}
	subject := "tenantctl"
	if len(args) == 2 {
		subject = args[1]
	}
	token, expiresAt, err := auth.NewTokenService(cfg.Auth).Issue(namespace, subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "namespace=%s expires=%s\n", namespace, expiresAt.Format(time.RFC3339))
	return nil
}

func migrateDirectory(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	if cfg.Database.Driver == "sqlite" {
		db, err := persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return persistence.NewGormTenantRepository(db.DB).AutoMigrate(ctx)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return errors.Wrap(err, "failed to ping database")
	}
	migrator, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = migrator.Close() }()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "force":
		if len(args) != 2 {
			return errors.New("usage: tenantctl migrate-directory force <version>")
		}
		v, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return errors.Wrapf(convErr, "invalid version %q", args[1])
		}
		err = migrator.Force(v)
	case "version":
	default:
		return errors.Newf("unknown migrate-directory action %q", action)
	}
	if err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	fmt.Printf("directory schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func listTenants(ctx context.Context, tenants *tenantapp.Service) error {
	all, err := tenants.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tNAME\tACTIVE\tCREATED")
	for _, t := range all {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", t.Namespace, t.Name, t.Active, t.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func runRecurring(ctx context.Context, cfg *config.Config, tenants *tenantapp.Service, pool *tenant.Pool, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("run-recurring", flag.ContinueOnError)
	date := fs.String("date", "", "Date to run for, YYYY-MM-DD in the scheduler timezone (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return errors.Wrap(err, "invalid scheduler timezone")
	}
	asOf := time.Now().In(loc)
	if *date != "" {
		asOf, err = time.ParseInLocation(time.DateOnly, *date, loc)
		if err != nil {
			return errors.Wrapf(err, "invalid -date %q", *date)
		}
	}

	recurring := financeapp.NewRecurringExpenseService(tenants, persistence.NewGormExpenseScope(pool), nil, nil, loc, log)
	summary, err := recurring.RunOnce(ctx, asOf)
	if err != nil {
		return err
	}
	fmt.Printf("%s: tenants=%d created=%d skipped=%d failed=%d\n",
		summary.AsOf.Format(time.DateOnly), summary.Tenants, summary.Created, summary.Skipped, summary.Failed())
	for _, f := range summary.Failures {
		fmt.Printf("  %s: %v\n", f.Namespace, f.Err)
	}
	if summary.Failed() > 0 {
		return errors.Newf("%d tenant(s) failed", summary.Failed())
	}
	return nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: tenantctl [flags] <command> [args]

Commands:
  migrate-directory [up|down|version|force <v>]  Migrate the tenant directory schema
  create <namespace|slug> <name>                 Register a tenant and create its partition
  token <namespace|slug> [subject]               Print a bearer token for the tenant
  deactivate <namespace>                         Suspend a tenant, keeping its data
  activate <namespace>                           Re-enable a suspended tenant
  drop <namespace>                               Drop a tenant's partition and directory entry
  list                                           List all tenants
  run-recurring [-date YYYY-MM-DD]               Generate due recurring expenses now

Flags:
`)
	flag.PrintDefaults()
}
