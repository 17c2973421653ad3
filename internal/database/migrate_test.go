package database_test

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-flow/internal/config"
	"github.com/redmonkez12/go-auth-flow/internal/database"
	"github.com/redmonkez12/go-auth-flow/internal/database/dbtest"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	count, err := db.NewSelect().Model((*database.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = db.NewSelect().Model((*database.BootstrapMarker)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, db.DB, config.DriverSQLite, logging.Discard()))

	statuses, err := database.MigrationStatus(ctx, db.DB, config.DriverSQLite)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.NotZero(t, st.Source.Version)
		assert.Equal(t, goose.StateApplied, st.State)
	}
}
