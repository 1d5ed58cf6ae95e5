// Package database opens the SQL store shared by the project registry and
// the scan history, and applies the embedded schema migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver ("sqlite")

	"github.com/raysh454/qadetector/internal/logging"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Driver selects the backing database.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type Config struct {
	Driver Driver `mapstructure:"driver"`
	// DSN is a file path (or ":memory:") for sqlite and a connection URL
	// for postgres.
	DSN string `mapstructure:"dsn"`
}

func DefaultConfig() Config {
	return Config{Driver: DriverSQLite, DSN: "qadetector.db"}
}

// DB wraps *sql.DB with the dialect it talks to.
type DB struct {
	*sql.DB
	driver Driver
	logger logging.Logger
}

// Open connects to the configured database and applies connection pragmas.
// It does not run migrations; call Migrate for that.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	logger = logger.With(logging.Component("database"))

	var (
		sqlDB *sql.DB
		err   error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		cfg.Driver = DriverSQLite
		dsn := cfg.DSN
		if dsn == "" {
			dsn = DefaultConfig().DSN
		}
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil && dsn == ":memory:" {
			// Every pooled connection would otherwise see its own empty database.
			sqlDB.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres requires a dsn")
		}
		sqlDB, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		if err := applyPragmas(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	logger.Info("database opened", logging.Field{Key: "driver", Value: string(cfg.Driver)})
	return &DB{DB: sqlDB, driver: cfg.Driver, logger: logger}, nil
}

// sqliteDSN adds per-connection pragmas; database/sql pools connections so
// a one-off PRAGMA statement would only reach one of them.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Driver reports the dialect in use.
func (d *DB) Driver() Driver { return d.driver }

// Rebind rewrites '?' placeholders into the dialect's form. Queries are
// written with '?' and must not contain literal question marks.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) provider() (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch d.driver {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	}
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	return goose.NewProvider(dialect, d.DB, sub)
}

// Migrate applies every pending migration and returns the resulting schema
// version.
func (d *DB) Migrate(ctx context.Context) (int64, error) {
	p, err := d.provider()
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		d.logger.Info("migration applied",
			logging.Field{Key: "version", Value: r.Source.Version},
			logging.Field{Key: "duration", Value: r.Duration.String()})
	}
	return p.GetDBVersion(ctx)
}

// MigrationStatus lists the known migrations and whether each is applied.
func (d *DB) MigrationStatus(ctx context.Context) ([]*goose.MigrationStatus, error) {
	p, err := d.provider()
	if err != nil {
		return nil, err
	}
	return p.Status(ctx)
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (d *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// If Commit() succeeds, Rollback() returns sql.ErrTxDone which we ignore.
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			d.logger.Warn("rollback failed", logging.Err(rerr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
