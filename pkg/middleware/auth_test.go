package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzanova/backend/pkg/auth"
	"github.com/pizzanova/backend/pkg/cache"
)

func fixedResolver(acct *Account, err error) Resolver {
	return func(context.Context, string) (*Account, error) {
		return acct, err
	}
}

func serve(t *testing.T, resolve Resolver, token string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	handler := Authenticate(resolve)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders/mine", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func useTestRedis(t *testing.T) {
	t.Helper()
	srv := miniredis.RunT(t)
	cache.RDB = redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { cache.RDB = nil })
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	rec, reached := serve(t, fixedResolver(&Account{ID: "u1", Role: "customer"}, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	rec, reached := serve(t, fixedResolver(&Account{ID: "u1", Role: "customer"}, nil), "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthenticateRejectsBlockedAccount(t *testing.T) {
	token, err := auth.GenerateToken("u1", "customer")
	require.NoError(t, err)

	blocked := &Account{ID: "u1", Role: "customer", Blocked: true, BlockedReason: "payment fraud"}
	rec, reached := serve(t, fixedResolver(blocked, nil), token)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached, "handler must not run for a blocked account")

	var body struct {
		Reason string `json:"reason"`
		Data   struct {
			BlockedReason string `json:"blocked_reason"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "blocked", body.Reason)
	assert.Equal(t, "payment fraud", body.Data.BlockedReason)
}

// Tokens issued before a block stay dead even once the account itself reads
// as healthy again, until the user logs in for a fresh token.
func TestAuthenticateRejectsTokensIssuedBeforeBlock(t *testing.T) {
	useTestRedis(t)

	token, err := auth.GenerateToken("u1", "customer")
	require.NoError(t, err)

	blocked := &Account{ID: "u1", Role: "customer", Blocked: true, BlockedReason: "abuse"}
	rec, _ := serve(t, fixedResolver(blocked, nil), token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Same token after unblock: the revocation stamp written above wins
	// before the resolver is even consulted.
	healthy := &Account{ID: "u1", Role: "customer"}
	rec, reached := serve(t, fixedResolver(healthy, nil), token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	var body struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body.Reason)
}

func TestAuthenticateRejectsDeletedAccount(t *testing.T) {
	token, err := auth.GenerateToken("gone", "customer")
	require.NoError(t, err)

	rec, reached := serve(t, fixedResolver(nil, ErrNoAccount), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthenticatePassesAccountToHandler(t *testing.T) {
	token, err := auth.GenerateToken("u1", "admin")
	require.NoError(t, err)

	acct := &Account{ID: "u1", Role: "admin", Email: "ops@pizzanova.dev"}
	var got *Account
	handler := Authenticate(fixedResolver(acct, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = AccountFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "ops@pizzanova.dev", got.Email)
}
