// Package store persists students, companies, jobs and applications in a SQL
// database. SQLite (modernc.org/sqlite) is the embedded default; PostgreSQL is
// reached through a pgx pool exposed as a database/sql handle so both drivers
// share one set of queries.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"placement/internal/config"
	"placement/internal/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the placement database.
type Store struct {
	db     *sql.DB
	pool   *pgxpool.Pool
	driver string
	logger *errors.Logger
	now    func() time.Time
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (*Store, error) {
	s := &Store{driver: cfg.Driver, logger: logger, now: time.Now}

	switch cfg.Driver {
	case DriverSQLite:
		db, err := openSQLite(cfg.DSN)
		if err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to open sqlite database", err)
		}
		s.db = db
	case DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid postgres DSN", err)
		}
		if cfg.MaxConns > 0 {
			poolConfig.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			poolConfig.MinConns = cfg.MinConns
		}
		if cfg.ConnMaxLifetime > 0 {
			poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to create postgres pool", err)
		}
		s.pool = pool
		s.db = stdlib.OpenDBFromPool(pool)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported store driver: %s", cfg.Driver), nil)
	}

	if err := s.db.PingContext(ctx); err != nil {
		s.Close()
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "database ping failed", err)
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("Store opened", "driver", cfg.Driver, "dsn", config.RedactDSN(cfg.DSN))
	return s, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Close releases the database handle and, for postgres, the pool.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) migrate(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read schema", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read "+entry.Name(), err)
		}
		for _, stmt := range strings.Split(string(data), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to apply "+entry.Name(), err)
			}
		}
		s.logger.Debug("Migration applied", "file", entry.Name())
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
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

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to commit transaction", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	items := []string{}
	if raw == "" {
		return items
	}
	_ = json.Unmarshal([]byte(raw), &items)
	if items == nil {
		items = []string{}
	}
	return items
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func storeErr(message string, err error) error {
	return errors.NewStoreError(errors.ErrCodeStoreFailed, message, err)
}

func notFound(kind, id string) error {
	return errors.NewNotFoundError(errors.ErrCodeNotFound, kind+" not found", nil).WithContext("id", id)
}
