package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReplaceRefreshesPricesFromCatalog(t *testing.T) {
	p := product("Margherita", 10.00, true)
	svc := NewCartService(catalogWith(p))

	cart, err := svc.Replace(context.Background(), "u1", CartUpdate{Items: []CartItem{
		{ProductID: p.ID.Hex(), Quantity: 2, UnitPrice: 1.00}, // stale client price
	}})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 10.00, cart.Items[0].UnitPrice)
	assert.Equal(t, "Margherita", cart.Items[0].Name)
	assert.Equal(t, 20.00, cart.Subtotal)
}

func TestReplaceDropsDeadProducts(t *testing.T) {
	alive := product("Margherita", 10.00, true)
	dead := product("Hawaiian", 11.00, false)
	svc := NewCartService(catalogWith(alive, dead))

	cart, err := svc.Replace(context.Background(), "u1", CartUpdate{Items: []CartItem{
		{ProductID: alive.ID.Hex(), Quantity: 1},
		{ProductID: dead.ID.Hex(), Quantity: 1},
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1, Name: "Ghost"},
	}})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.ElementsMatch(t, []string{"Hawaiian", "Ghost"}, cart.Removed)
	assert.Equal(t, 10.00, cart.Subtotal)
}

func TestReplaceMergesDuplicateLines(t *testing.T) {
	p := product("Margherita", 10.00, true)
	svc := NewCartService(catalogWith(p))

	cart, err := svc.Replace(context.Background(), "u1", CartUpdate{Items: []CartItem{
		{ProductID: p.ID.Hex(), Quantity: 1, Size: "large"},
		{ProductID: p.ID.Hex(), Quantity: 2, Size: "large"},
		{ProductID: p.ID.Hex(), Quantity: 1, Size: "small"},
	}})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 1, cart.Items[1].Quantity)
}

func TestReplaceRejectsOversizedCart(t *testing.T) {
	p := product("Margherita", 10.00, true)
	svc := NewCartService(catalogWith(p))

	items := make([]CartItem, cartMaxItems+1)
	for i := range items {
		items[i] = CartItem{ProductID: p.ID.Hex(), Quantity: 1}
	}

	_, err := svc.Replace(context.Background(), "u1", CartUpdate{Items: items})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReplaceCatalogDown(t *testing.T) {
	svc := NewCartService(&stubCatalog{err: errors.New("connection refused")})

	_, err := svc.Replace(context.Background(), "u1", CartUpdate{Items: []CartItem{
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
	}})
	require.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestCheckoutItemsMirrorsCart(t *testing.T) {
	// Without Redis the stored cart is empty; conversion must be too.
	svc := NewCartService(catalogWith(product("Margherita", 10.00, true)))

	items, err := svc.CheckoutItems(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartEmptyForNewCustomer(t *testing.T) {
	svc := NewCartService(catalogWith())

	cart, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}
