// Package testutil connects integration tests to the Postgres database that
// backs the console's audit trail. Everything here skips the calling test
// when TEST_DATABASE_URL is unset, so the default test run needs no database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for goose
)

// NewPool returns a pool on the test database, closed when t ends. The audit
// repo runs on it.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := requireDSN(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle on the test database for driving
// migrations, closed when t ends.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openSQL(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, which has no *testing.T. The
// caller closes the handle.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openSQL(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

func openSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping audit database test")
	}
	return dsn
}
