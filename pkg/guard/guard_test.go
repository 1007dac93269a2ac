package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzanova/backend/pkg/middleware"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, acct *middleware.Account) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	if acct != nil {
		req = req.WithContext(middleware.WithAccount(req.Context(), acct))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAllowsListedRole(t *testing.T) {
	rec := serve(t, Require("admin"), &middleware.Account{ID: "u1", Role: "admin"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRejectsWrongRole(t *testing.T) {
	rec := serve(t, Require("admin"), &middleware.Account{ID: "u1", Role: "customer"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "wrong_role", body.Reason)
	assert.Equal(t, "admin role required", body.Message)
}

func TestRequireRejectsUnauthenticated(t *testing.T) {
	rec := serve(t, Require("admin"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireMultipleRoles(t *testing.T) {
	mw := Require("customer", "admin")

	for _, role := range []string{"customer", "admin"} {
		rec := serve(t, mw, &middleware.Account{ID: "u1", Role: role})
		assert.Equal(t, http.StatusOK, rec.Code, "role %s", role)
	}

	rec := serve(t, mw, &middleware.Account{ID: "u1", Role: "courier"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
