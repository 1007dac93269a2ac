package controllers

import (
	"net/http"

	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
)

// CartController exposes the server-side cart. The cart is a convenience
// draft; checkout re-validates everything regardless of what it holds.
type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// Get returns the cart re-validated against the live catalog.
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	cart, err := c.carts.Get(r.Context(), caller.ID.Hex())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, cart)
}

// Replace stores a full cart snapshot.
func (c *CartController) Replace(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	var req services.CartUpdate
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	cart, err := c.carts.Replace(r.Context(), caller.ID.Hex(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, cart)
}

// Clear empties the cart.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	if err := c.carts.Clear(r.Context(), caller.ID.Hex()); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"cleared": true})
}
