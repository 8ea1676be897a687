// Package orm implements the repository interfaces on top of GORM.
//
// TWO DIALECTS, ONE CODE PATH:
// Every query in this package is written against *gorm.DB, so the same code runs
// on SQLite (development, tests) and Postgres (deployment). Only New knows which
// dialect is in use.
//
//   - sqlite:   we open the connection ourselves with the pure-Go modernc.org/sqlite
//     driver (no C compiler needed) and hand it to gorm.io/driver/sqlite
//     through Config.Conn. ":memory:" gives every test its own database.
//   - postgres: gorm.io/driver/postgres with a DSN such as
//     "host=db user=app password=... dbname=mentorship sslmode=disable".
//
// MIGRATIONS:
// AutoMigrate creates or extends the privileges, descriptions and users tables.
// It never drops columns, so it is safe to run on every start. The three
// privilege rows are seeded right after, idempotently.
package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB owns the ORM handle and the underlying connection pool.
type DB struct {
	gorm *gorm.DB
	conn *sql.DB
}

// New connects to the configured database, migrates the schema and seeds the
// privilege table.
func New(cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		conn, err := openSQLite(cfg.URL)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite", Conn: conn})
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("orm: unsupported driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		// Every write here is a single statement; the implicit per-write
		// transaction would only cost a round trip.
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("orm: opening %s database: %w", cfg.Driver, err)
	}

	conn, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("orm: getting connection pool: %w", err)
	}

	db := &DB{gorm: gdb, conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("orm: running migrations: %w", err)
	}

	return db, nil
}

// openSQLite opens a modernc connection pool with foreign keys enforced.
//
// PRAGMAs are per-connection in SQLite, so they go in the DSN (the driver runs
// them on every new connection) rather than in a one-off Exec.
func openSQLite(path string) (*sql.DB, error) {
	memory := path == ":memory:"

	pragmas := "_pragma=foreign_keys(1)"
	if !memory {
		pragmas += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	conn, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("orm: opening sqlite database: %w", err)
	}

	// Each connection to ":memory:" is a separate, empty database. Pin the pool
	// to one connection so every query sees the migrated schema.
	if memory {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("orm: pinging sqlite database: %w", err)
	}
	return conn, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the /healthz endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Transaction runs fn on a DB whose queries all go through one gorm transaction.
// The returned DB shares the pool; it must not be closed or used after fn returns.
func (db *DB) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{gorm: tx, conn: db.conn})
	})
}

func (db *DB) migrate() error {
	if err := db.gorm.AutoMigrate(&model.Privilege{}, &model.Description{}, &model.User{}); err != nil {
		return fmt.Errorf("auto-migrating tables: %w", err)
	}

	for _, role := range model.Roles {
		p := model.Privilege{Name: role.String()}
		if err := db.gorm.Where(model.Privilege{Name: p.Name}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seeding privilege %s: %w", p.Name, err)
		}
	}
	return nil
}

// notFoundOr turns gorm.ErrRecordNotFound into apperror.NotFound and wraps any
// other error with op.
func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("orm: %s: %w", op, err)
}

// isUniqueViolation recognises duplicate-key errors from both dialects.
// TranslateError maps Postgres errors to gorm.ErrDuplicatedKey; the sqlite
// dialect only translates errors from its cgo driver, so modernc errors are
// matched on SQLite's message text.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// gormWriter routes GORM's log output into slog at debug level.
type gormWriter struct {
	logger *slog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "gorm"))
}

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	if logger == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
