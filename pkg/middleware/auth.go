package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/auth"
	"github.com/pizzanova/backend/pkg/response"
	"github.com/pizzanova/backend/pkg/session"
)

// Account is the identity attached to an authenticated request. It is
// re-resolved from live user state on every request — never cached across
// requests — which is what makes block-revocation immediate.
type Account struct {
	ID            string
	Role          string
	Email         string
	Name          string
	Blocked       bool
	BlockedReason string
}

// ErrNoAccount is returned by a Resolver when the user no longer exists.
var ErrNoAccount = errors.New("middleware: account not found")

// Resolver loads the live account for a user ID.
type Resolver func(ctx context.Context, userID string) (*Account, error)

type identityKey struct{}

// WithAccount returns ctx carrying acct.
func WithAccount(ctx context.Context, acct *Account) context.Context {
	return context.WithValue(ctx, identityKey{}, acct)
}

// AccountFromCtx returns the authenticated account, if any.
func AccountFromCtx(ctx context.Context) (*Account, bool) {
	acct, ok := ctx.Value(identityKey{}).(*Account)
	return acct, ok
}

// RoleFromCtx returns the authenticated account's role.
func RoleFromCtx(ctx context.Context) (string, bool) {
	if acct, ok := AccountFromCtx(ctx); ok {
		return acct.Role, true
	}
	return "", false
}

// Authenticate validates the bearer token and resolves the live account.
//
//   - no/invalid token → 401 unauthenticated
//   - token issued before a revocation → 401 unauthenticated
//   - account gone → 401 unauthenticated
//   - account blocked → outstanding tokens revoked, denial audited,
//     401 blocked carrying the stored reason
func Authenticate(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				audit.Security(r.Context(), "auth_denied", "", "", r.URL.Path, "unauthenticated", nil)
				response.Unauthorized(w, "unauthenticated")
				return
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				audit.Security(r.Context(), "auth_denied", "", "", r.URL.Path, "unauthenticated", nil)
				response.Unauthorized(w, "unauthenticated")
				return
			}

			if claims.IssuedAt != nil && session.IsRevoked(claims.UserID, claims.IssuedAt.Time) {
				audit.Security(r.Context(), "auth_denied", claims.UserID, claims.Role, r.URL.Path, "revoked", nil)
				response.Unauthorized(w, "unauthenticated")
				return
			}

			acct, err := resolve(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, ErrNoAccount) {
					audit.Security(r.Context(), "auth_denied", claims.UserID, claims.Role, r.URL.Path, "unauthenticated", nil)
					response.Unauthorized(w, "unauthenticated")
					return
				}
				response.Internal(w)
				return
			}

			if acct.Blocked {
				_ = session.Revoke(acct.ID)
				audit.Security(r.Context(), "blocked_access_attempt", acct.ID, acct.Role, r.URL.Path, "blocked",
					bson.M{"blocked_reason": acct.BlockedReason})
				response.FailData(w, http.StatusUnauthorized, "Account is blocked", "blocked",
					map[string]string{"blocked_reason": acct.BlockedReason})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}
