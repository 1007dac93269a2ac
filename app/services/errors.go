// Package services holds the business rules. Controllers translate the
// sentinel errors below into HTTP responses and reason codes; the services
// themselves never touch net/http.
package services

import "errors"

var (
	// ErrNotFound covers any missing resource (user, product, order).
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registration hits the unique email index.
	ErrEmailTaken = errors.New("email already registered")

	// ErrBadCredentials is returned on login with a wrong email or password.
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrOrderLimit is returned when a customer already holds the maximum
	// number of active orders.
	ErrOrderLimit = errors.New("active order limit reached")

	// ErrPromoAbuse is returned when a one-time promo code is redeemed twice.
	ErrPromoAbuse = errors.New("promo code already redeemed")

	// ErrCatalogUnavailable means the catalog could not be consulted at all.
	// Distinct from a validation failure: the submitted prices may be fine.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("unknown order status")

	// ErrInvalidTransition is returned for a status move the transition
	// table forbids, including any move out of a terminal state.
	ErrInvalidTransition = errors.New("illegal status transition")

	// ErrNotOwner is returned when a customer touches another customer's order.
	ErrNotOwner = errors.New("order belongs to another customer")

	// ErrAdminProtected is returned when an admin targets another admin
	// account with block, unblock or delete.
	ErrAdminProtected = errors.New("admin accounts cannot be moderated")

	// ErrSelfAction is returned when an admin targets their own account.
	ErrSelfAction = errors.New("cannot moderate own account")

	// ErrEmptyCart is returned on checkout with no items.
	ErrEmptyCart = errors.New("cart is empty")
)

// OrderLimitError wraps ErrOrderLimit with the customer's current active
// order count, which the response echoes back.
type OrderLimitError struct {
	Active int64
}

func (e *OrderLimitError) Error() string { return ErrOrderLimit.Error() }
func (e *OrderLimitError) Unwrap() error { return ErrOrderLimit }

// ValidationError carries per-item price validation failures out of
// checkout. Failures lists one message per offending line item.
type ValidationError struct {
	Reason   string   // response reason code
	Failures []string // human-readable, one per mismatch
}

func (e *ValidationError) Error() string {
	if len(e.Failures) > 0 {
		return e.Failures[0]
	}
	return "order validation failed"
}
