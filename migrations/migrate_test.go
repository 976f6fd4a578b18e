package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/logging"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/testutil"
	"github.com/AndrewGardhouse/ticketbeast-tdd/migrations"
)

func TestApply_RecordsMigrations(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	log := logging.Discard()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`)
	require.NoError(t, err)

	require.NoError(t, migrations.Apply(ctx, pool, log))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.GreaterOrEqual(t, count, 2)

	require.NoError(t, migrations.Apply(ctx, pool, log), "re-applying is a no-op")

	var again int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)

	for _, table := range []string{"concerts", "orders", "tickets"} {
		var exists bool
		require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+table).Scan(&exists))
		assert.True(t, exists, table)
	}
}
