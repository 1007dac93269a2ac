package controllers

import (
	"net/http"

	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates a customer account and signs them in.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	pair, err := c.auth.Register(r.Context(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Created(w, pair)
}

// Login exchanges credentials for a token pair.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	pair, err := c.auth.Login(r.Context(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, pair)
}
