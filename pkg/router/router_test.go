package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNamedRoutes(t *testing.T) {
	r := New()
	r.Get("/products/{id}", "products.show", ok)

	path, found := r.Path("products.show")
	if !found {
		t.Fatal("route not registered")
	}
	if path != "/products/{id}" {
		t.Errorf("path = %q", path)
	}

	url, err := r.URL("products.show", map[string]string{"id": "42"})
	if err != nil {
		t.Fatal(err)
	}
	if url != "/products/42" {
		t.Errorf("url = %q", url)
	}

	if _, err := r.URL("products.show", nil); err == nil {
		t.Error("expected error for missing params")
	}
}

func TestGroupPrefixAndMiddleware(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := New()
	g := r.Group("/admin", mw("outer"))
	g.Get("/users", "admin.users", ok, mw("inner"))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v", order)
	}

	if path, _ := r.Path("admin.users"); path != "/admin/users" {
		t.Errorf("path = %q", path)
	}
}

func TestRoutesReturnsCopy(t *testing.T) {
	r := New()
	r.Get("/healthz", "healthz", ok)

	routes := r.Routes()
	routes["healthz"] = "tampered"

	if path, _ := r.Path("healthz"); path != "/healthz" {
		t.Error("Routes() must return a copy")
	}
}
