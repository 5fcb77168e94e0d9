package cart

import (
	"context"
	"testing"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *storage.Store {
	store := storage.New(storage.NewMemoryBackend(), nil)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBuyNow_SetOverwrites(t *testing.T) {
	buyNow := NewBuyNow(setupStore(t), nil)
	ctx := context.Background()

	require.NoError(t, buyNow.SetProduct(ctx, product("p1", "10"), 1))
	require.NoError(t, buyNow.SetProduct(ctx, product("p2", "20"), 3))

	items := buyNow.Get(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ProductID("p2"), items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestBuyNow_IndependentOfCart(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	buyNow := NewBuyNow(store, nil)
	ledger := NewLedger(store, testPolicy(), nil)

	require.NoError(t, ledger.Add(ctx, product("p1", "10"), 1))
	require.NoError(t, buyNow.SetProduct(ctx, product("p9", "99"), 1))
	require.NoError(t, buyNow.Clear(ctx))

	assert.Empty(t, buyNow.Get(ctx))
	assert.Equal(t, 1, ledger.ItemCount(ctx))
}

func TestBuyNow_Validation(t *testing.T) {
	buyNow := NewBuyNow(setupStore(t), nil)
	ctx := context.Background()

	assert.ErrorIs(t, buyNow.SetProduct(ctx, domain.Product{}, 1), ErrInvalidProduct)
	assert.ErrorIs(t, buyNow.SetProduct(ctx, product("p1", "1"), 0), ErrInvalidQuantity)
	assert.ErrorIs(t, buyNow.Set(ctx, []domain.CartLineItem{{ID: "p1", Quantity: -1}}), ErrInvalidQuantity)
	assert.Empty(t, buyNow.Get(ctx))
}

func TestBuyNow_SetNilStoresEmptyList(t *testing.T) {
	store := setupStore(t)
	buyNow := NewBuyNow(store, nil)
	ctx := context.Background()

	require.NoError(t, buyNow.Set(ctx, nil))

	var raw []domain.CartLineItem
	require.True(t, store.Get(ctx, KeyBuyNow, &raw))
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestBuyNow_ClearAbsentSucceeds(t *testing.T) {
	buyNow := NewBuyNow(setupStore(t), nil)
	assert.NoError(t, buyNow.Clear(context.Background()))
}

func TestPromoSlot(t *testing.T) {
	engine, err := promo.NewEngine(promo.DefaultCodes())
	require.NoError(t, err)
	slot := NewPromoSlot(setupStore(t), engine, nil)
	ctx := context.Background()

	assert.Nil(t, slot.Current(ctx))

	_, err = slot.Apply(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyPromoCode)
	_, err = slot.Apply(ctx, "BOGUS")
	assert.ErrorIs(t, err, ErrInvalidPromo)
	_, err = slot.Apply(ctx, "freeship")
	assert.ErrorIs(t, err, ErrInvalidPromo)
	assert.Nil(t, slot.Current(ctx))

	state, err := slot.Apply(ctx, " save10 ")
	require.NoError(t, err)
	assert.Equal(t, domain.PromoState{Code: "SAVE10", Percent: 10}, state)

	// an invalid code afterwards leaves the stored promo alone
	_, err = slot.Apply(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidPromo)
	current := slot.Current(ctx)
	require.NotNil(t, current)
	assert.Equal(t, 10, current.Percent)

	require.NoError(t, slot.Clear(ctx))
	assert.Nil(t, slot.Current(ctx))
}
