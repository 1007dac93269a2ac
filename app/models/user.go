package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles are mutually exclusive — there is no hierarchy.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// SavedCard is a masked payment token. Only the last four digits are ever
// stored — no real PAN reaches this system.
type SavedCard struct {
	Brand    string    `bson:"brand"               json:"brand"`
	LastFour string    `bson:"last_four"           json:"last_four"`
	Expiry   string    `bson:"expiry,omitempty"    json:"expiry,omitempty"`
	AddedAt  time.Time `bson:"added_at"            json:"added_at"`
}

// User is the account document. The block fields (reason/at/by) are set
// together and cleared together.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"            json:"id"`
	Name           string             `bson:"name"                     json:"name"`
	Email          string             `bson:"email"                    json:"email"`
	Password       string             `bson:"password"                 json:"-"` // bcrypt hash, never serialised
	Role           string             `bson:"role"                     json:"role"`
	IsVerified     bool               `bson:"is_verified"              json:"is_verified"`
	IsBlocked      bool               `bson:"is_blocked"               json:"is_blocked"`
	BlockedReason  string             `bson:"blocked_reason,omitempty" json:"blocked_reason,omitempty"`
	BlockedAt      *time.Time         `bson:"blocked_at,omitempty"     json:"blocked_at,omitempty"`
	BlockedBy      string             `bson:"blocked_by,omitempty"     json:"blocked_by,omitempty"`
	SavedCards     []SavedCard        `bson:"saved_cards,omitempty"    json:"saved_cards,omitempty"`
	RedeemedPromos []string           `bson:"redeemed_promos,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"created_at"               json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"               json:"updated_at"`
}

// HasCard reports whether a card with the given last-four digits is already
// saved. Last-four is a weak uniqueness key — two different cards sharing
// the digits collide — but it is the key the platform uses.
func (u *User) HasCard(lastFour string) bool {
	for _, c := range u.SavedCards {
		if c.LastFour == lastFour {
			return true
		}
	}
	return false
}

// HasRedeemedPromo reports whether the user already used a one-time promo code.
func (u *User) HasRedeemedPromo(code string) bool {
	for _, p := range u.RedeemedPromos {
		if p == code {
			return true
		}
	}
	return false
}
