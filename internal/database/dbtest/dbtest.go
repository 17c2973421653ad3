// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/redmonkez12/go-auth-flow/internal/config"
	"github.com/redmonkez12/go-auth-flow/internal/database"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

var seq atomic.Int64

// New returns a Bun DB backed by a private in-memory SQLite database with
// all migrations applied. The database is closed when the test ends.
func New(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared", seq.Add(1))

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(context.Background(), sqlDB, config.DriverSQLite, logging.Discard()); err != nil {
		sqlDB.Close()
		t.Fatalf("migrate: %v", err)
	}

	db := database.NewBunDB(sqlDB, config.DriverSQLite)
	t.Cleanup(func() { db.Close() })
	return db
}
