package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
	"github.com/pizzanova/backend/pkg/tracker"
)

// OrderController is the customer-facing order surface.
type OrderController struct {
	orders    *services.OrderService
	customers services.CustomerStore
	hub       *tracker.Hub
}

func NewOrderController(orders *services.OrderService, customers services.CustomerStore, hub *tracker.Hub) *OrderController {
	return &OrderController{orders: orders, customers: customers, hub: hub}
}

// Create runs checkout. The full user document is reloaded so promo and
// saved-card state is current, not a token snapshot.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	var req services.CheckoutRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	customer, err := c.customers.FindByID(r.Context(), caller.ID.Hex())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	order, err := c.orders.Checkout(r.Context(), customer, req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"order_id":           order.ID.Hex(),
		"order_number":       order.OrderNumber,
		"total":              order.Total,
		"estimated_delivery": order.EstimatedDelivery,
	})
}

// Mine lists the caller's own orders.
func (c *OrderController) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	page, limit := pageLimit(r)
	orders, pg, err := c.orders.ListMine(r.Context(), caller.ID, page, limit)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Paginated(w, orders, pg)
}

// Get returns one order, owner or admin only.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	order, err := c.orders.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, order)
}

// Track upgrades to a WebSocket pushing live status events for one order.
// Ownership is checked before the upgrade.
func (c *OrderController) Track(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	order, err := c.orders.Track(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	c.hub.Serve(w, r, order.ID.Hex())
}
