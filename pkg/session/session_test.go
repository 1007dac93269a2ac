package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pizzanova/backend/pkg/cache"
)

func useTestRedis(t *testing.T) {
	t.Helper()
	srv := miniredis.RunT(t)
	cache.RDB = redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { cache.RDB = nil })
}

func TestRevokeKillsEarlierTokens(t *testing.T) {
	useTestRedis(t)

	if err := Revoke("u1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if !IsRevoked("u1", time.Now().Add(-time.Minute)) {
		t.Error("token issued before the revocation must be rejected")
	}
	if IsRevoked("u1", time.Now().Add(2*time.Second)) {
		t.Error("token issued after the revocation must pass")
	}
	if IsRevoked("someone-else", time.Now().Add(-time.Minute)) {
		t.Error("revocation must be scoped to the user")
	}
}

func TestClearRemovesRevocation(t *testing.T) {
	useTestRedis(t)

	if err := Revoke("u1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := Clear("u1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if IsRevoked("u1", time.Now().Add(-time.Minute)) {
		t.Error("cleared revocation must not reject tokens")
	}
}

func TestIsRevokedFailsOpenWithoutRedis(t *testing.T) {
	cache.RDB = nil
	if IsRevoked("u1", time.Now().Add(-time.Hour)) {
		t.Error("unreachable Redis must fail open; the live is_blocked check remains authoritative")
	}
}
