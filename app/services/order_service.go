package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/config"
	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/metrics"
	"github.com/pizzanova/backend/pkg/paginate"
	"github.com/pizzanova/backend/pkg/tracker"
)

// orderNumberAttempts bounds retries when the random suffix collides with
// an existing order number on the same day.
const orderNumberAttempts = 5

// SaveCardRequest is an optional tokenized card to remember at checkout.
type SaveCardRequest struct {
	Brand    string `json:"brand"     validate:"required,in=visa,mastercard,amex,other"`
	LastFour string `json:"last_four" validate:"required,regex=^[0-9]{4}$"`
	Expiry   string `json:"expiry"    validate:"nullable,regex=^(0[1-9]|1[0-2])/[0-9]{2}$"`
}

// CheckoutRequest is the client-submitted order. Every monetary value in it
// is untrusted and re-derived server side.
type CheckoutRequest struct {
	Items           []SubmittedItem  `json:"items"            validate:"required"`
	Subtotal        float64          `json:"subtotal"         validate:"numeric,gte=0"`
	DeliveryFee     float64          `json:"delivery_fee"     validate:"numeric,gte=0"`
	Total           float64          `json:"total"            validate:"required,numeric,gte=0"`
	DeliveryType    string           `json:"delivery_type"    validate:"required,in=delivery,takeaway"`
	DeliveryAddress string           `json:"delivery_address" validate:"nullable,max=500"`
	PaymentMethod   string           `json:"payment_method"   validate:"nullable,in=card,cash"`
	PromoCode       string           `json:"promo_code"       validate:"nullable,max=40"`
	SaveCard        *SaveCardRequest `json:"save_card"        validate:"nullable"`
}

// OrderStore is the persistence surface the order service needs.
// *repositories.OrderRepository satisfies it.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id string) (models.Order, error)
	CountActiveByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page, limit int) ([]models.Order, paginate.Pagination, error)
	List(ctx context.Context, filter repositories.OrderFilter, page, limit int) ([]models.Order, paginate.Pagination, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from string, entry models.StatusEntry) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (repositories.OrderStats, error)
}

// CustomerStore is the slice of the user repository checkout touches.
type CustomerStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	MarkPromoRedeemed(ctx context.Context, id, code string) error
	AddSavedCard(ctx context.Context, id string, card models.SavedCard) error
}

// OrderService implements checkout and the order lifecycle.
type OrderService struct {
	orders    OrderStore
	users     CustomerStore
	validator *PriceValidator
	hub       *tracker.Hub
}

func NewOrderService(orders OrderStore, users CustomerStore, validator *PriceValidator, hub *tracker.Hub) *OrderService {
	return &OrderService{orders: orders, users: users, validator: validator, hub: hub}
}

// Checkout validates and persists a customer order. The sequence matters:
// the promo and active-order checks run before price validation so abusive
// requests never trigger catalog reads, and price validation runs before
// any persistence.
func (s *OrderService) Checkout(ctx context.Context, customer models.User, req CheckoutRequest) (models.Order, error) {
	var order models.Order

	address := req.DeliveryAddress
	if req.DeliveryType == models.DeliveryTypeTakeaway {
		address = models.TakeawayAddress
	} else if address == "" {
		return order, &ValidationError{
			Reason:   ReasonValidationFailed,
			Failures: []string{"delivery address is required for delivery orders"},
		}
	}

	if req.PromoCode != "" && customer.HasRedeemedPromo(req.PromoCode) {
		metrics.OrderValidationFailures.WithLabelValues("promo_abuse").Inc()
		audit.Security(ctx, "promo_reuse_attempt", customer.ID.Hex(), customer.Role, "/orders", "promoAbuse",
			bson.M{"promo_code": req.PromoCode})
		return order, ErrPromoAbuse
	}

	// Count-then-insert: two concurrent checkouts can both pass and exceed
	// the cap by one. Soft anti-abuse control, the race is accepted.
	active, err := s.orders.CountActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return order, fmt.Errorf("count active orders: %w", err)
	}
	if active >= int64(config.ActiveOrderCap()) {
		metrics.OrderValidationFailures.WithLabelValues("order_limit").Inc()
		return order, &OrderLimitError{Active: active}
	}

	priced, err := s.validator.Validate(ctx, req.Items, req.DeliveryType, req.Total)
	if err != nil {
		return order, err
	}

	now := time.Now().UTC()
	order = models.Order{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		Items:           priced.Items,
		Status:          models.StatusConfirmed,
		Subtotal:        priced.Subtotal,
		DeliveryFee:     priced.DeliveryFee,
		Total:           priced.Total,
		PaymentStatus:   paymentStatus(req.PaymentMethod),
		DeliveryType:    req.DeliveryType,
		DeliveryAddress: address,
		PromoCode:       req.PromoCode,
		StatusHistory: []models.StatusEntry{
			{Status: models.StatusConfirmed, Timestamp: now, Note: "order placed"},
		},
		EstimatedDelivery: now.Add(config.EstimatedDeliveryWindow()),
	}

	for attempt := 0; ; attempt++ {
		order.OrderNumber = newOrderNumber(now)
		err = s.orders.Create(ctx, &order)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicate) && attempt < orderNumberAttempts {
			continue
		}
		return order, fmt.Errorf("persist order: %w", err)
	}

	metrics.OrdersCreated.WithLabelValues(order.DeliveryType).Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_number", order.OrderNumber,
		"customer_id", customer.ID.Hex(),
		"total", order.Total,
	)

	// Post-persistence bookkeeping failures must not fail the checkout.
	if req.PromoCode != "" {
		if err := s.users.MarkPromoRedeemed(ctx, customer.ID.Hex(), req.PromoCode); err != nil {
			logger.WithCtx(ctx).Error("mark promo redeemed", "error", err)
		}
	}
	if req.SaveCard != nil && !customer.HasCard(req.SaveCard.LastFour) {
		card := models.SavedCard{
			Brand:    req.SaveCard.Brand,
			LastFour: req.SaveCard.LastFour,
			Expiry:   req.SaveCard.Expiry,
			AddedAt:  now,
		}
		if err := s.users.AddSavedCard(ctx, customer.ID.Hex(), card); err != nil {
			logger.WithCtx(ctx).Error("save card", "error", err)
		}
	}

	s.publish(order, "order placed")
	return order, nil
}

// Get returns an order visible to the caller. Customers see only their own
// orders; admins see everything.
func (s *OrderService) Get(ctx context.Context, actor models.User, id string) (models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return order, ErrNotFound
	}
	if err != nil {
		return order, err
	}
	if actor.Role != models.RoleAdmin && order.CustomerID != actor.ID {
		audit.Security(ctx, "order_access_denied", actor.ID.Hex(), actor.Role, "/orders/"+id, "wrong_role",
			bson.M{"order_number": order.OrderNumber})
		return order, ErrNotOwner
	}
	return order, nil
}

// ListMine returns the customer's own orders.
func (s *OrderService) ListMine(ctx context.Context, customerID primitive.ObjectID, page, limit int) ([]models.Order, paginate.Pagination, error) {
	return s.orders.ListByCustomer(ctx, customerID, page, limit)
}

// AdminList returns all orders matching the filter.
func (s *OrderService) AdminList(ctx context.Context, filter repositories.OrderFilter, page, limit int) ([]models.Order, paginate.Pagination, error) {
	return s.orders.List(ctx, filter, page, limit)
}

// Transition moves an order to newStatus under the strict transition table
// and appends the history entry. Terminal orders never move again.
func (s *OrderService) Transition(ctx context.Context, id, newStatus, note string) (models.Order, error) {
	var order models.Order

	if !models.ValidStatus(newStatus) {
		return order, ErrInvalidStatus
	}

	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return order, ErrNotFound
	}
	if err != nil {
		return order, err
	}

	if !models.CanTransition(order.Status, newStatus) {
		return order, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	entry := models.StatusEntry{Status: newStatus, Timestamp: time.Now().UTC(), Note: note}
	err = s.orders.UpdateStatus(ctx, order.ID, order.Status, entry)
	if errors.Is(err, repositories.ErrNotFound) {
		// The status moved between read and write; report it as an illegal
		// transition rather than a missing order.
		return order, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return order, err
	}

	order.Status = newStatus
	order.StatusHistory = append(order.StatusHistory, entry)
	metrics.StatusTransitions.WithLabelValues(newStatus).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_number", order.OrderNumber, "status", newStatus)

	s.publish(order, note)
	return order, nil
}

// Delete irreversibly removes an order, recording a full snapshot in the
// security log first.
func (s *OrderService) Delete(ctx context.Context, actor models.User, id string) error {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	audit.Security(ctx, "order_deleted", actor.ID.Hex(), actor.Role, "/orders/admin/"+id, "admin_delete", bson.M{
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID.Hex(),
		"total":        order.Total,
		"status":       order.Status,
	})

	if err := s.orders.Delete(ctx, order.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// AdminCreate persists a manual-entry order on behalf of a customer. The
// same price validation applies; admins do not get to invent totals.
func (s *OrderService) AdminCreate(ctx context.Context, customerID string, req CheckoutRequest) (models.Order, error) {
	customer, err := s.users.FindByID(ctx, customerID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return s.Checkout(ctx, customer, req)
}

// Stats returns the back-office dashboard aggregates.
func (s *OrderService) Stats(ctx context.Context) (repositories.OrderStats, error) {
	return s.orders.Stats(ctx)
}

// Track authorizes a live-tracking subscription: the order must exist and
// belong to the caller (admins may track any order). Returns the order id
// to subscribe on.
func (s *OrderService) Track(ctx context.Context, actor models.User, id string) (models.Order, error) {
	return s.Get(ctx, actor, id)
}

func (s *OrderService) publish(order models.Order, note string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(tracker.StatusEvent{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Note:        note,
		At:          time.Now().UTC(),
	})
}

func paymentStatus(method string) string {
	if method == "cash" {
		return "pending"
	}
	return "paid"
}

// newOrderNumber builds ORD-<YYYYMMDD>-<4 random digits>. Global uniqueness
// is enforced by the unique index, with retry on collision.
func newOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), n.Int64())
}
