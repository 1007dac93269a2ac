// Package routes wires the HTTP surface: public catalog and auth, the
// customer order flow, and the admin back office. Access control is layered
// as Authenticate (identity) then guard.Require (role), never per-handler
// conditionals.
package routes

import (
	"net/http"

	"github.com/pizzanova/backend/app/controllers"
	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/pkg/guard"
	"github.com/pizzanova/backend/pkg/metrics"
	"github.com/pizzanova/backend/pkg/middleware"
	"github.com/pizzanova/backend/pkg/response"
	"github.com/pizzanova/backend/pkg/router"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth         *controllers.AuthController
	Products     *controllers.ProductController
	Cart         *controllers.CartController
	Orders       *controllers.OrderController
	AdminOrders  *controllers.AdminOrderController
	AdminUsers   *controllers.AdminUserController
	AdminCatalog *controllers.AdminProductController
	GraphQL      http.HandlerFunc
	Resolver     middleware.Resolver
}

// Register mounts every route on r.
func Register(r *router.Router, d Deps) {
	authed := middleware.Authenticate(d.Resolver)
	customer := guard.Require(models.RoleCustomer)
	admin := guard.Require(models.RoleAdmin)
	anyRole := guard.Require(models.RoleCustomer, models.RoleAdmin)

	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	// Public surface.
	r.Post("/auth/register", "auth.register", d.Auth.Register)
	r.Post("/auth/login", "auth.login", d.Auth.Login)
	r.Get("/products", "products.index", d.Products.List)
	r.Get("/products/categories", "products.categories", d.Products.Categories)
	r.Get("/products/{id}", "products.show", d.Products.Get)
	r.Post("/graphql", "graphql", d.GraphQL)

	// Customer cart and checkout. Admins do not transact.
	cart := r.Group("/cart", authed, customer)
	cart.Get("/", "cart.show", d.Cart.Get)
	cart.Put("/", "cart.replace", d.Cart.Replace)
	cart.Delete("/", "cart.clear", d.Cart.Clear)

	orders := r.Group("/orders", authed)
	orders.Post("/", "orders.create", d.Orders.Create, customer)
	orders.Get("/mine", "orders.mine", d.Orders.Mine, customer)

	// Admin order back office. Registered before the {id} wildcards.
	orders.Get("/admin/all", "orders.admin.index", d.AdminOrders.List, admin)
	orders.Get("/admin/stats", "orders.admin.stats", d.AdminOrders.Stats, admin)
	orders.Post("/admin/create", "orders.admin.create", d.AdminOrders.Create, admin)
	orders.Delete("/admin/{id}", "orders.admin.delete", d.AdminOrders.Delete, admin)

	orders.Get("/{id}", "orders.show", d.Orders.Get, anyRole)
	orders.Get("/{id}/track", "orders.track", d.Orders.Track, anyRole)
	orders.Patch("/{id}/status", "orders.transition", d.AdminOrders.Transition, admin)

	// Profile is the one self-edit route, open to both roles.
	profile := r.Group("/admin/profile", authed, anyRole)
	profile.Get("/", "profile.show", d.AdminUsers.Profile)
	profile.Put("/", "profile.update", d.AdminUsers.UpdateProfile)

	// Admin user management.
	users := r.Group("/admin/users", authed, admin)
	users.Get("/", "admin.users.index", d.AdminUsers.List)
	users.Get("/{id}", "admin.users.show", d.AdminUsers.Get)
	users.Put("/{id}", "admin.users.update", d.AdminUsers.Update)
	users.Delete("/{id}", "admin.users.delete", d.AdminUsers.Delete)
	users.Patch("/{id}/block", "admin.users.block", d.AdminUsers.Block)
	users.Patch("/{id}/unblock", "admin.users.unblock", d.AdminUsers.Unblock)

	// Admin catalog management.
	catalog := r.Group("/admin/products", authed, admin)
	catalog.Post("/", "admin.products.create", d.AdminCatalog.Create)
	catalog.Put("/{id}", "admin.products.update", d.AdminCatalog.Update)
	catalog.Patch("/{id}/availability", "admin.products.availability", d.AdminCatalog.SetAvailability)
	catalog.Delete("/{id}", "admin.products.delete", d.AdminCatalog.Delete)
	catalog.Post("/{id}/image", "admin.products.image", d.AdminCatalog.UploadImage)
}
