package repository

import (
	"context"
	"testing"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/stretchr/testify/require"
)

// testLocalStoreContract is shared by every LocalCartRepository implementation.
func testLocalStoreContract(t *testing.T, store LocalCartRepository) {
	ctx := context.Background()
	items := []domain.CartLineItem{
		{ProductID: "p1", Name: "Beans", UnitPrice: 10, Quantity: 2, ImageRef: "/img/p1.png"},
		{ProductID: "p2", Name: "Filter", UnitPrice: 2.5, Quantity: 1},
	}

	t.Run("missing slot is empty", func(t *testing.T) {
		got, err := store.Load(ctx, "cart:local:missing")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("save then load keeps order", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "cart:local:a", items))

		got, err := store.Load(ctx, "cart:local:a")
		require.NoError(t, err)
		require.Equal(t, items, got)
	})

	t.Run("save replaces the whole list", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "cart:local:a", items[:1]))

		got, err := store.Load(ctx, "cart:local:a")
		require.NoError(t, err)
		require.Equal(t, items[:1], got)
	})

	t.Run("slots are isolated", func(t *testing.T) {
		got, err := store.Load(ctx, "cart:local:b")
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("nil list is stored as empty", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "cart:local:c", nil))

		got, err := store.Load(ctx, "cart:local:c")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "cart:local:a"))
		require.NoError(t, store.Delete(ctx, "cart:local:never-existed"))

		got, err := store.Load(ctx, "cart:local:a")
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestMemoryLocalStore(t *testing.T) {
	testLocalStoreContract(t, NewMemoryLocalStore())
}

func TestDecodeItems_Corrupt(t *testing.T) {
	_, err := decodeItems([]byte(`{"not":"an array"}`))
	require.ErrorIs(t, err, ErrCorruptLocalCart)

	items, err := decodeItems([]byte(`null`))
	require.NoError(t, err)
	require.NotNil(t, items)
}
