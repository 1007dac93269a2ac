package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
	"github.com/pizzanova/backend/pkg/validate"
)

// AdminOrderController is the back-office order surface. Route wiring puts
// it behind guard.Require(admin).
type AdminOrderController struct {
	orders *services.OrderService
}

func NewAdminOrderController(orders *services.OrderService) *AdminOrderController {
	return &AdminOrderController{orders: orders}
}

// List returns all orders with status/customer/date filters.
func (c *AdminOrderController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repositories.OrderFilter{
		Status:     q.Get("status"),
		CustomerID: q.Get("customer_id"),
	}
	if from, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filter.To = &to
	}

	page, limit := pageLimit(r)
	orders, pg, err := c.orders.AdminList(r.Context(), filter, page, limit)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Paginated(w, orders, pg)
}

// Stats serves the dashboard aggregates.
func (c *AdminOrderController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.orders.Stats(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, stats)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"   validate:"nullable,max=500"`
}

// Transition moves an order through the lifecycle.
func (c *AdminOrderController) Transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.Transition(r.Context(), chi.URLParam(r, "id"), req.Status, req.Note)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, order)
}

// Delete irreversibly removes an order.
func (c *AdminOrderController) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	if err := c.orders.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

type manualOrderRequest struct {
	CustomerID string                   `json:"customer_id" validate:"required"`
	Order      services.CheckoutRequest `json:"order"       validate:"required"`
}

// Create places a manual-entry order on behalf of a customer. Prices are
// validated exactly as for a customer checkout.
func (c *AdminOrderController) Create(w http.ResponseWriter, r *http.Request) {
	var req manualOrderRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	// The binder does not descend into nested structs.
	if errs := validate.Struct(&req.Order); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.AdminCreate(r.Context(), req.CustomerID, req.Order)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Created(w, order)
}
