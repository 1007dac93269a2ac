package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pizzanova/backend/pkg/cache"
	"github.com/pizzanova/backend/pkg/logger"
)

const (
	cartTTL       = 7 * 24 * time.Hour
	cartKeyPrefix = "pizzanova:cart:"
	cartMaxItems  = 50
)

// CartItem is one stored cart line. Prices are refreshed from the catalog
// on every read, so a cart can go stale without ever checking out wrong.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Crust     string  `json:"crust,omitempty"`
	UnitPrice float64 `json:"unit_price"`
}

// CartUpdate replaces the whole cart in one write.
type CartUpdate struct {
	Items []CartItem `json:"items" validate:"required"`
}

// Cart is the hydrated view returned to the client: stored lines refreshed
// against the live catalog, removed lines reported, totals recomputed.
type Cart struct {
	Items    []CartItem `json:"items"`
	Removed  []string   `json:"removed,omitempty"`
	Subtotal float64    `json:"subtotal"`
}

// CartService keeps one cart per customer in Redis. The cart is a draft,
// not an order: nothing in it is trusted at checkout, which re-validates
// everything through the price validator.
type CartService struct {
	catalog Catalog
}

func NewCartService(catalog Catalog) *CartService {
	return &CartService{catalog: catalog}
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

// Get loads the stored cart and re-validates it against the catalog.
// Vanished and unavailable products are dropped and reported in Removed.
func (s *CartService) Get(ctx context.Context, userID string) (Cart, error) {
	var stored []CartItem
	cache.Get(cartKey(userID), &stored)
	return s.hydrate(ctx, userID, stored, true)
}

// Replace validates and stores a full cart snapshot.
func (s *CartService) Replace(ctx context.Context, userID string, upd CartUpdate) (Cart, error) {
	if len(upd.Items) > cartMaxItems {
		return Cart{}, &ValidationError{
			Reason:   ReasonValidationFailed,
			Failures: []string{fmt.Sprintf("cart cannot exceed %d items", cartMaxItems)},
		}
	}
	return s.hydrate(ctx, userID, upd.Items, true)
}

// Clear empties the customer's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return cache.Del(cartKey(userID))
}

// hydrate re-prices items against the catalog, drops dead lines, merges
// duplicate lines and optionally persists the cleaned cart.
func (s *CartService) hydrate(ctx context.Context, userID string, items []CartItem, persist bool) (Cart, error) {
	cart := Cart{Items: []CartItem{}}
	if len(items) == 0 {
		if persist {
			_ = cache.Del(cartKey(userID))
		}
		return cart, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return cart, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	merged := map[string]int{} // product+size+crust -> index in cart.Items
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsAvailable {
			name := it.Name
			if ok {
				name = p.Name
			}
			if name == "" {
				name = it.ProductID
			}
			cart.Removed = append(cart.Removed, name)
			continue
		}

		if it.Quantity < 1 {
			it.Quantity = 1
		} else if it.Quantity > maxLineQuantity {
			it.Quantity = maxLineQuantity
		}

		key := it.ProductID + "|" + it.Size + "|" + it.Crust
		if idx, seen := merged[key]; seen {
			cart.Items[idx].Quantity += it.Quantity
			continue
		}

		it.Name = p.Name
		it.UnitPrice = p.Price
		merged[key] = len(cart.Items)
		cart.Items = append(cart.Items, it)
	}

	for _, it := range cart.Items {
		cart.Subtotal = round2(cart.Subtotal + it.UnitPrice*float64(it.Quantity))
	}

	if persist {
		if err := cache.Set(cartKey(userID), cart.Items, cartTTL); err != nil {
			logger.WithCtx(ctx).Warn("cart persist", "error", err)
		}
	}
	return cart, nil
}

// CheckoutItems converts the stored cart into the submitted-item shape the
// checkout endpoint expects. Used by clients that checkout the server cart
// directly instead of posting items.
func (s *CartService) CheckoutItems(ctx context.Context, userID string) ([]SubmittedItem, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SubmittedItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		out = append(out, SubmittedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Crust:     it.Crust,
			UnitPrice: it.UnitPrice,
		})
	}
	return out, nil
}
