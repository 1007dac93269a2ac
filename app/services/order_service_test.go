package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/paginate"
)

type fakeOrderStore struct {
	active  int64
	orders  map[string]models.Order
	updated []models.StatusEntry
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]models.Order)}
}

func (f *fakeOrderStore) Create(_ context.Context, o *models.Order) error {
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID.Hex()] = *o
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id string) (models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return o, repositories.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) CountActiveByCustomer(context.Context, primitive.ObjectID) (int64, error) {
	return f.active, nil
}

func (f *fakeOrderStore) ListByCustomer(context.Context, primitive.ObjectID, int, int) ([]models.Order, paginate.Pagination, error) {
	return nil, paginate.Pagination{}, nil
}

func (f *fakeOrderStore) List(context.Context, repositories.OrderFilter, int, int) ([]models.Order, paginate.Pagination, error) {
	return nil, paginate.Pagination{}, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from string, entry models.StatusEntry) error {
	o, ok := f.orders[id.Hex()]
	if !ok || o.Status != from {
		return repositories.ErrNotFound
	}
	o.Status = entry.Status
	o.StatusHistory = append(o.StatusHistory, entry)
	f.orders[id.Hex()] = o
	f.updated = append(f.updated, entry)
	return nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.orders[id.Hex()]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.orders, id.Hex())
	return nil
}

func (f *fakeOrderStore) Stats(context.Context) (repositories.OrderStats, error) {
	return repositories.OrderStats{}, nil
}

type fakeCustomerStore struct {
	users  map[string]models.User
	promos []string
	cards  []models.SavedCard
}

func newFakeCustomerStore(users ...models.User) *fakeCustomerStore {
	f := &fakeCustomerStore{users: make(map[string]models.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeCustomerStore) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return u, repositories.ErrNotFound
	}
	return u, nil
}

func (f *fakeCustomerStore) MarkPromoRedeemed(_ context.Context, _, code string) error {
	f.promos = append(f.promos, code)
	return nil
}

func (f *fakeCustomerStore) AddSavedCard(_ context.Context, _ string, card models.SavedCard) error {
	f.cards = append(f.cards, card)
	return nil
}

func testCustomer() models.User {
	return models.User{
		ID:   primitive.NewObjectID(),
		Name: "Ada Lovelace",
		Role: models.RoleCustomer,
	}
}

func checkoutFixture(t *testing.T) (*OrderService, *fakeOrderStore, *fakeCustomerStore, models.User, CheckoutRequest) {
	t.Helper()

	margherita := product("Margherita", 10.00, true)
	customer := testCustomer()
	orders := newFakeOrderStore()
	users := newFakeCustomerStore(customer)
	svc := NewOrderService(orders, users, NewPriceValidator(catalogWith(margherita)), nil)

	req := CheckoutRequest{
		Items:           []SubmittedItem{{ProductID: margherita.ID.Hex(), Quantity: 2, UnitPrice: 10.00}},
		Total:           22.00, // 20.00 + 2.00 delivery fee
		DeliveryType:    models.DeliveryTypeDelivery,
		DeliveryAddress: "1 Baker Street",
	}
	return svc, orders, users, customer, req
}

var orderNumberRe = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

func TestCheckoutCreatesConfirmedOrder(t *testing.T) {
	svc, orders, _, customer, req := checkoutFixture(t)

	order, err := svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, order.Status)
	assert.Regexp(t, orderNumberRe, order.OrderNumber)
	assert.Equal(t, customer.ID, order.CustomerID)
	assert.Equal(t, 20.00, order.Subtotal)
	assert.Equal(t, 2.00, order.DeliveryFee)
	assert.Equal(t, 22.00, order.Total)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusConfirmed, order.StatusHistory[0].Status)

	eta := time.Until(order.EstimatedDelivery)
	assert.InDelta(t, 45, eta.Minutes(), 1)

	assert.Len(t, orders.orders, 1)
}

func TestCheckoutEnforcesActiveOrderCap(t *testing.T) {
	svc, orders, _, customer, req := checkoutFixture(t)

	orders.active = 5
	_, err := svc.Checkout(context.Background(), customer, req)
	require.ErrorIs(t, err, ErrOrderLimit)
	assert.Empty(t, orders.orders)

	// One below the cap still goes through.
	orders.active = 4
	_, err = svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
}

func TestCheckoutTakeawaySubstitutesSentinelAddress(t *testing.T) {
	svc, _, _, customer, req := checkoutFixture(t)

	req.DeliveryType = models.DeliveryTypeTakeaway
	req.DeliveryAddress = ""
	req.Total = 20.00

	order, err := svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, models.TakeawayAddress, order.DeliveryAddress)
	assert.Zero(t, order.DeliveryFee)
}

func TestCheckoutRequiresDeliveryAddress(t *testing.T) {
	svc, _, _, customer, req := checkoutFixture(t)

	req.DeliveryAddress = ""
	_, err := svc.Checkout(context.Background(), customer, req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonValidationFailed, verr.Reason)
}

func TestCheckoutRejectsPromoReuse(t *testing.T) {
	svc, orders, users, customer, req := checkoutFixture(t)

	customer.RedeemedPromos = []string{"WELCOME10"}
	req.PromoCode = "WELCOME10"
	_, err := svc.Checkout(context.Background(), customer, req)
	require.ErrorIs(t, err, ErrPromoAbuse)
	assert.Empty(t, orders.orders)

	// A fresh code is redeemed and recorded.
	req.PromoCode = "SUMMER20"
	_, err = svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUMMER20"}, users.promos)
}

func TestCheckoutSavedCardDedupedByLastFour(t *testing.T) {
	svc, _, users, customer, req := checkoutFixture(t)

	customer.SavedCards = []models.SavedCard{{Brand: "visa", LastFour: "4242"}}

	req.SaveCard = &SaveCardRequest{Brand: "mastercard", LastFour: "4242"}
	_, err := svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Empty(t, users.cards, "same last-four must not be saved twice")

	req.SaveCard = &SaveCardRequest{Brand: "visa", LastFour: "1881"}
	_, err = svc.Checkout(context.Background(), customer, req)
	require.NoError(t, err)
	require.Len(t, users.cards, 1)
	assert.Equal(t, "1881", users.cards[0].LastFour)
}

func seedOrder(f *fakeOrderStore, status string) models.Order {
	o := models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "ORD-20260830-0001",
		CustomerID:  primitive.NewObjectID(),
		Status:      status,
	}
	f.orders[o.ID.Hex()] = o
	return o
}

func TestTransitionFollowsForwardSequence(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)
	o := seedOrder(orders, models.StatusConfirmed)

	for _, next := range []string{
		models.StatusPreparing, models.StatusReady,
		models.StatusOutForDelivery, models.StatusDelivered,
	} {
		got, err := svc.Transition(context.Background(), o.ID.Hex(), next, "")
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, got.Status)
	}

	stored := orders.orders[o.ID.Hex()]
	assert.Len(t, stored.StatusHistory, 4)
}

func TestTransitionRejectsSkippingStates(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)
	o := seedOrder(orders, models.StatusConfirmed)

	_, err := svc.Transition(context.Background(), o.ID.Hex(), models.StatusDelivered, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionTerminalStatesAreImmutable(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)

	for _, terminal := range []string{models.StatusDelivered, models.StatusCancelled} {
		o := seedOrder(orders, terminal)
		_, err := svc.Transition(context.Background(), o.ID.Hex(), models.StatusPreparing, "")
		require.ErrorIs(t, err, ErrInvalidTransition, "from %s", terminal)
	}
}

func TestTransitionAllowsCancelFromAnyActiveState(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)

	for _, active := range models.ActiveStatuses() {
		o := seedOrder(orders, active)
		got, err := svc.Transition(context.Background(), o.ID.Hex(), models.StatusCancelled, "customer request")
		require.NoError(t, err, "from %s", active)
		assert.Equal(t, models.StatusCancelled, got.Status)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)
	o := seedOrder(orders, models.StatusConfirmed)

	_, err := svc.Transition(context.Background(), o.ID.Hex(), "shipped", "")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetEnforcesOwnership(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)
	o := seedOrder(orders, models.StatusConfirmed)

	stranger := testCustomer()
	_, err := svc.Get(context.Background(), stranger, o.ID.Hex())
	require.ErrorIs(t, err, ErrNotOwner)

	admin := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	got, err := svc.Get(context.Background(), admin, o.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
}

func TestDeleteOrder(t *testing.T) {
	orders := newFakeOrderStore()
	svc := NewOrderService(orders, newFakeCustomerStore(), NewPriceValidator(catalogWith()), nil)
	o := seedOrder(orders, models.StatusDelivered)
	admin := models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	require.NoError(t, svc.Delete(context.Background(), admin, o.ID.Hex()))
	assert.Empty(t, orders.orders)

	err := svc.Delete(context.Background(), admin, o.ID.Hex())
	require.ErrorIs(t, err, ErrNotFound)
}
