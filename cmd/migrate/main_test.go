package main

import (
	"bytes"
	"context"
	"testing"

	"devhabit/internal/config"
	"devhabit/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestExecute(t *testing.T) {
	cfg := &config.Config{Env: "production", DBMaxOpenConns: 1}
	db, err := database.OpenWithoutSchema(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, execute(ctx, db, cfg, "status", &out))
	assert.Contains(t, out.String(), "mode=manual env=production auto_migrate=false pending=true")
	assert.Contains(t, out.String(), "missing table: users")

	out.Reset()
	require.NoError(t, execute(ctx, db, cfg, "AUTO", &out))
	assert.Equal(t, "schema migrated\n", out.String())

	out.Reset()
	require.NoError(t, execute(ctx, db, cfg, "status", &out))
	assert.Contains(t, out.String(), "pending=false")
	assert.Contains(t, out.String(), "ok: goals")

	assert.Error(t, execute(ctx, db, cfg, "down", &out))
}
