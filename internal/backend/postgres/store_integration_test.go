package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summit/internal/backend"
	"summit/internal/testutil"
)

func TestStoreAgainstPostgres(t *testing.T) {
	pool := testutil.NewPostgresPool(t)
	ctx := context.Background()

	store, err := New(pool)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Insert(ctx, backend.TableSponsors,
		backend.Row{"id": "s-1", "name": "Acme", "tier": "gold", "created_at": "2025-01-01T00:00:00.000000Z"},
		backend.Row{"id": "s-2", "name": "Beta", "tier": "silver", "created_at": "2025-02-01T00:00:00.000000Z"},
	))

	rows, err := store.Select(ctx, backend.TableSponsors, backend.Query{}.OrderBy(backend.ColumnCreatedAt, false))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Beta", rows[0]["name"])

	require.NoError(t, store.Update(ctx, backend.TableSponsors, backend.Row{"tier": "platinum"}, "s-1"))
	rows, err = store.Select(ctx, backend.TableSponsors, backend.Query{}.Eq("tier", "platinum"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["name"])

	require.NoError(t, store.Delete(ctx, backend.TableSponsors, "s-2"))
	rows, err = store.Select(ctx, backend.TableSponsors, backend.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
