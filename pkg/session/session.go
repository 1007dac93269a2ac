// Package session tracks token revocation in Redis.
//
// Auth tokens are stateless JWTs, so "invalidating the session" of a blocked
// user means recording a revocation timestamp for that user: any token issued
// before the timestamp is rejected. The revocation record expires after the
// maximum token lifetime, by which point every affected token has expired on
// its own.
package session

import (
	"time"

	"github.com/pizzanova/backend/pkg/cache"
)

// maxTokenLifetime must cover the longest-lived token we issue (refresh: 7d).
const maxTokenLifetime = 7 * 24 * time.Hour

func revocationKey(userID string) string { return "pizzanova:revoked:" + userID }

// Revoke invalidates every token issued to userID before now.
// Called when an admin blocks a user.
func Revoke(userID string) error {
	now := time.Now().Unix()
	return cache.Set(revocationKey(userID), now, maxTokenLifetime)
}

// Clear removes the revocation record (unblock does NOT call this: tokens
// issued before the block stay dead; the user simply logs in again).
func Clear(userID string) error {
	return cache.Del(revocationKey(userID))
}

// IsRevoked reports whether a token issued at issuedAt has been revoked.
// Fails open when Redis is unreachable: the live is_blocked check in the
// auth middleware remains the authoritative control.
func IsRevoked(userID string, issuedAt time.Time) bool {
	var ts int64
	if !cache.Get(revocationKey(userID), &ts) {
		return false
	}
	return !issuedAt.After(time.Unix(ts, 0))
}
