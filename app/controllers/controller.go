// Package controllers holds the HTTP handlers. Controllers decode and
// validate input, call a service, and translate the result into the JSON
// envelope. No business rules live here.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/middleware"
	"github.com/pizzanova/backend/pkg/response"
)

// renderServiceError maps service sentinels onto the error taxonomy:
// 400 for validation and moderation-guard failures, 401 for credentials,
// 403 for promo abuse and ownership, 404, 409 for duplicates, 503 when the
// catalog cannot be consulted, 500 for the rest.
func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var limit *services.OrderLimitError

	switch {
	case errors.As(err, &limit):
		response.FailData(w, http.StatusBadRequest, "Active order limit reached", "orderLimitReached",
			map[string]int64{"activeOrders": limit.Active})
	case errors.As(err, &verr):
		response.FailData(w, http.StatusBadRequest, "Order validation failed", verr.Reason,
			map[string][]string{"failures": verr.Failures})
	case errors.Is(err, services.ErrEmptyCart):
		response.Fail(w, http.StatusBadRequest, "Cart is empty", "validationFailed")
	case errors.Is(err, services.ErrPromoAbuse):
		response.Fail(w, http.StatusForbidden, "Promo code already redeemed", "promoAbuse")
	case errors.Is(err, services.ErrCatalogUnavailable):
		response.Fail(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable", "catalogUnavailable")
	case errors.Is(err, services.ErrInvalidStatus):
		response.Fail(w, http.StatusBadRequest, "Unknown order status", "invalidStatus")
	case errors.Is(err, services.ErrInvalidTransition):
		response.Fail(w, http.StatusBadRequest, err.Error(), "invalidTransition")
	case errors.Is(err, services.ErrSelfAction):
		response.Fail(w, http.StatusBadRequest, "You cannot perform this action on your own account", "self_action")
	case errors.Is(err, services.ErrAdminProtected):
		response.Fail(w, http.StatusBadRequest, "Admin accounts cannot be moderated", "admin_protected")
	case errors.Is(err, services.ErrNotOwner):
		response.Forbidden(w, "This order belongs to another customer", "not_owner")
	case errors.Is(err, services.ErrEmailTaken):
		response.Fail(w, http.StatusConflict, "Email is already registered", "email_taken")
	case errors.Is(err, services.ErrBadCredentials):
		response.Unauthorized(w, "bad_credentials")
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w)
	default:
		logger.WithCtx(r.Context()).Error("unhandled service error", "error", err)
		response.Internal(w)
	}
}

// actor builds the service-layer actor from the authenticated account.
func actor(r *http.Request) (models.User, bool) {
	acct, ok := middleware.AccountFromCtx(r.Context())
	if !ok {
		return models.User{}, false
	}
	oid, err := primitive.ObjectIDFromHex(acct.ID)
	if err != nil {
		return models.User{}, false
	}
	return models.User{ID: oid, Name: acct.Name, Email: acct.Email, Role: acct.Role}, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

func pageLimit(r *http.Request) (int, int) {
	return queryInt(r, "page", 1), queryInt(r, "limit", 20)
}
