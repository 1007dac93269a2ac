package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pizzanova/backend/app/models"
)

type stubCatalog struct {
	products map[string]models.Product
	err      error
}

func (c *stubCatalog) FindByIDs(_ context.Context, ids []string) (map[string]models.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]models.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func catalogWith(products ...models.Product) *stubCatalog {
	c := &stubCatalog{products: make(map[string]models.Product)}
	for _, p := range products {
		c.products[p.ID.Hex()] = p
	}
	return c
}

func product(name string, price float64, available bool) models.Product {
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Price:       price,
		IsAvailable: available,
	}
}

func TestValidateAcceptsHonestOrder(t *testing.T) {
	margherita := product("Margherita", 10.00, true)
	pepperoni := product("Pepperoni", 12.50, true)
	v := NewPriceValidator(catalogWith(margherita, pepperoni))

	items := []SubmittedItem{
		{ProductID: margherita.ID.Hex(), Quantity: 2, UnitPrice: 10.00},
		{ProductID: pepperoni.ID.Hex(), Quantity: 1, UnitPrice: 12.50},
	}

	// subtotal 32.50 + delivery fee 2.00
	priced, err := v.Validate(context.Background(), items, models.DeliveryTypeDelivery, 34.50)
	require.NoError(t, err)

	assert.Equal(t, 32.50, priced.Subtotal)
	assert.Equal(t, 2.00, priced.DeliveryFee)
	assert.Equal(t, 34.50, priced.Total)
	require.Len(t, priced.Items, 2)
	assert.Equal(t, 20.00, priced.Items[0].LineTotal)
	assert.Equal(t, "Margherita", priced.Items[0].Name)
}

func TestValidateTakeawayHasNoFee(t *testing.T) {
	p := product("Margherita", 10.00, true)
	v := NewPriceValidator(catalogWith(p))

	items := []SubmittedItem{{ProductID: p.ID.Hex(), Quantity: 1, UnitPrice: 10.00}}

	priced, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 10.00)
	require.NoError(t, err)
	assert.Zero(t, priced.DeliveryFee)
	assert.Equal(t, 10.00, priced.Total)
}

func TestValidateRejectsUnknownProduct(t *testing.T) {
	v := NewPriceValidator(catalogWith())

	items := []SubmittedItem{{ProductID: primitive.NewObjectID().Hex(), Quantity: 1, UnitPrice: 9.99}}

	_, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 9.99)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonStaleCart, verr.Reason)
	require.Len(t, verr.Failures, 1)
}

func TestValidateRejectsUnavailableProduct(t *testing.T) {
	p := product("Calzone", 11.00, false)
	v := NewPriceValidator(catalogWith(p))

	items := []SubmittedItem{{ProductID: p.ID.Hex(), Quantity: 1, UnitPrice: 11.00}}

	_, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 11.00)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonStaleCart, verr.Reason)
	assert.Contains(t, verr.Failures[0], "Calzone")
}

func TestValidateRejectsTamperedUnitPrice(t *testing.T) {
	p := product("Margherita", 10.00, true)
	v := NewPriceValidator(catalogWith(p))

	// One cent under the catalog price. Unit prices allow no tolerance.
	items := []SubmittedItem{{ProductID: p.ID.Hex(), Quantity: 1, UnitPrice: 9.99}}

	_, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 9.99)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonValidationFailed, verr.Reason)
}

func TestValidateRejectsTamperedTotal(t *testing.T) {
	p := product("Margherita", 10.00, true)
	v := NewPriceValidator(catalogWith(p))

	items := []SubmittedItem{{ProductID: p.ID.Hex(), Quantity: 2, UnitPrice: 10.00}}

	_, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 15.00)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonValidationFailed, verr.Reason)
	assert.Contains(t, verr.Failures[0], "20.00")
}

func TestValidateToleratesFloatNoiseOnTotal(t *testing.T) {
	p := product("Margherita", 10.00, true)
	v := NewPriceValidator(catalogWith(p))

	items := []SubmittedItem{{ProductID: p.ID.Hex(), Quantity: 2, UnitPrice: 10.00}}

	priced, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 20.005)
	require.NoError(t, err)
	assert.Equal(t, 20.00, priced.Total)
}

func TestValidateCatalogDownIsNotAValidationFailure(t *testing.T) {
	v := NewPriceValidator(&stubCatalog{err: errors.New("connection refused")})

	items := []SubmittedItem{{ProductID: primitive.NewObjectID().Hex(), Quantity: 1, UnitPrice: 10.00}}

	_, err := v.Validate(context.Background(), items, models.DeliveryTypeTakeaway, 10.00)
	require.ErrorIs(t, err, ErrCatalogUnavailable)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidateRejectsEmptyCart(t *testing.T) {
	v := NewPriceValidator(catalogWith())

	_, err := v.Validate(context.Background(), nil, models.DeliveryTypeTakeaway, 0)
	require.ErrorIs(t, err, ErrEmptyCart)
}
