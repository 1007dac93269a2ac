// Package guard provides the single capability check every gated route uses.
// It replaces per-route role conditionals with one middleware parameterized
// by the allowed role set; middleware.Authenticate must run first.
package guard

import (
	"net/http"
	"strings"

	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/middleware"
	"github.com/pizzanova/backend/pkg/response"
)

// Require returns middleware that allows access only to the given roles.
// Denials return 403 with a machine-readable role hint and are written to
// the security log with caller identity, path and reason.
func Require(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	hint := strings.Join(roles, "|") + " role required"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acct, ok := middleware.AccountFromCtx(r.Context())
			if !ok {
				audit.Security(r.Context(), "guard_denied", "", "", r.URL.Path, "unauthenticated", nil)
				response.Unauthorized(w, "unauthenticated")
				return
			}
			if !allowed[acct.Role] {
				audit.Security(r.Context(), "guard_denied", acct.ID, acct.Role, r.URL.Path, "wrong_role", nil)
				response.Forbidden(w, hint, "wrong_role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
