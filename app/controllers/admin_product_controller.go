package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
)

// maxImageBytes caps product image uploads at 5 MB.
const maxImageBytes = 5 << 20

// AdminProductController is the back-office catalog write surface.
type AdminProductController struct {
	products *services.ProductService
}

func NewAdminProductController(products *services.ProductService) *AdminProductController {
	return &AdminProductController{products: products}
}

func (c *AdminProductController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.ProductInput
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := c.products.Create(r.Context(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Created(w, p)
}

func (c *AdminProductController) Update(w http.ResponseWriter, r *http.Request) {
	var req services.ProductInput
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := c.products.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, p)
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func (c *AdminProductController) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := c.products.SetAvailability(r.Context(), chi.URLParam(r, "id"), *req.IsAvailable)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, p)
}

func (c *AdminProductController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

// UploadImage accepts multipart form field "image" and attaches it to the
// product.
func (c *AdminProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	p, err := c.products.AttachImage(r.Context(), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, p)
}
