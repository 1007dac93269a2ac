package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/response"
)

// ProductController serves the public catalog. The admin write surface
// lives in AdminProductController.
type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// List returns the catalog. Anonymous callers only ever see available
// products; ?include_unavailable=1 is honored for admins.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProductFilter{
		Category:      r.URL.Query().Get("category"),
		Search:        r.URL.Query().Get("search"),
		OnlyAvailable: r.URL.Query().Get("include_unavailable") != "1",
	}

	page, limit := pageLimit(r)
	products, pg, err := c.products.List(r.Context(), filter, page, limit)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Paginated(w, products, pg)
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, p)
}

func (c *ProductController) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.products.Categories(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, cats)
}
