package cart

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts map[int64]vitrine.Product

func (s stubProducts) Product(ctx context.Context, subdomain string, productID int64) (*vitrine.Product, error) {
	p, ok := s[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func newTestService(t *testing.T) (Service, Store) {
	t.Helper()
	store, _, _ := newTestStore(t)
	promo := decimal.RequireFromString("8")
	svc, err := NewService(store, stubProducts{
		1: {ID: 1, Title: "Caneca", Price: decimal.NewFromInt(10), PromotionalPrice: &promo, Stock: 3, Weight: decimal.RequireFromString("0.4")},
		2: {ID: 2, Title: "Esgotado", Price: decimal.NewFromInt(5), Stock: 0},
	})
	require.NoError(t, err)
	return svc, store
}

func TestServiceAddItemSnapshotsProduct(t *testing.T) {
	svc, _ := newTestService(t)
	key := Key{SessionID: "s", Subdomain: "ana"}

	cart, err := svc.AddItem(context.Background(), key, 1, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Caneca", cart.Items[0].Title)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(8)))
	assert.True(t, cart.Items[0].Weight.Equal(decimal.RequireFromString("0.4")))
}

func TestServiceAddItemErrors(t *testing.T) {
	svc, _ := newTestService(t)
	key := Key{SessionID: "s", Subdomain: "ana"}

	_, err := svc.AddItem(context.Background(), key, 2, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.AddItem(context.Background(), key, 404, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(context.Background(), key, 1, -2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := Key{SessionID: "s", Subdomain: "ana"}

	_, err := svc.AddItem(ctx, key, 1, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, key, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = svc.RemoveItem(ctx, key, 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	cart, err = svc.RemoveItem(ctx, key, 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, err = svc.AddItem(ctx, key, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, key))
	assert.True(t, svc.Get(ctx, key).IsEmpty())
}
