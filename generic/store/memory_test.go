package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/generic/store"
)

func TestMemory_StoresCopies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	cat := generic.Catalog{ID: "pk", Options: []generic.Option{generic.NewOption("Daily PK", 200, 60)}}

	require.NoError(t, m.SaveCatalog(ctx, cat))
	cat.Options[0].Category = "Mutated"

	got, err := m.GetCatalog(ctx, "pk")
	require.NoError(t, err)
	assert.Equal(t, "Daily PK", got.Options[0].Category)

	_, err = m.GetCatalog(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrCatalogNotFound)
	assert.ErrorIs(t, m.DeleteCatalog(ctx, "missing"), generic.ErrCatalogNotFound)
}

func TestMemory_Runs(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.RecordRun(ctx, generic.Run{ID: "1", CatalogID: "pk"}))
	require.NoError(t, m.RecordRun(ctx, generic.Run{ID: "2", CatalogID: "other"}))
	require.NoError(t, m.RecordRun(ctx, generic.Run{ID: "3", CatalogID: "pk"}))

	runs, err := m.ListRuns(ctx, "pk", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "3", runs[0].ID)

	runs, err = m.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "3", runs[0].ID)
}
