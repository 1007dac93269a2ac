package services

import (
	"context"
	"fmt"
	"math"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/config"
	"github.com/pizzanova/backend/pkg/metrics"
)

// totalEpsilon absorbs float rounding on the recomputed grand total.
// Unit prices are compared exactly: the client echoes the catalog value
// verbatim, so any difference there is tampering or staleness.
const totalEpsilon = 0.01

// Reason codes attached to price validation failures.
const (
	ReasonStaleCart        = "staleCart"
	ReasonValidationFailed = "validationFailed"
)

// Catalog is the product lookup the validator prices against.
// *repositories.ProductRepository satisfies it; tests use a map-backed stub.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// SubmittedItem is one client-submitted cart line, untrusted.
type SubmittedItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
	Crust     string  `json:"crust"`
	UnitPrice float64 `json:"unit_price"`
}

// maxLineQuantity bounds a single line item.
const maxLineQuantity = 50

// PricedOrder is the server-side authoritative pricing of a cart.
type PricedOrder struct {
	Items       []models.LineItem
	Subtotal    float64
	DeliveryFee float64
	Total       float64
}

// PriceValidator re-prices a submitted cart against the live catalog and
// rejects any client-side tampering. Client totals are never trusted; they
// are only checked so a mismatch can be reported.
type PriceValidator struct {
	catalog Catalog
}

func NewPriceValidator(catalog Catalog) *PriceValidator {
	return &PriceValidator{catalog: catalog}
}

// Validate prices items for the given delivery type and compares the result
// to the client-claimed total. Returns ErrCatalogUnavailable when the
// catalog cannot be read, ErrEmptyCart for an empty submission, and a
// *ValidationError describing every offending line otherwise.
func (v *PriceValidator) Validate(ctx context.Context, items []SubmittedItem, deliveryType string, claimedTotal float64) (PricedOrder, error) {
	var priced PricedOrder

	if len(items) == 0 {
		return priced, ErrEmptyCart
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := v.catalog.FindByIDs(ctx, ids)
	if err != nil {
		metrics.OrderValidationFailures.WithLabelValues("catalog_unavailable").Inc()
		return priced, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var stale, mismatched []string
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > maxLineQuantity {
			mismatched = append(mismatched, fmt.Sprintf(
				"product %s: quantity %d is out of range", it.ProductID, it.Quantity))
			continue
		}

		p, ok := products[it.ProductID]
		switch {
		case !ok:
			stale = append(stale, fmt.Sprintf("product %s no longer exists", it.ProductID))
			continue
		case !p.IsAvailable:
			stale = append(stale, fmt.Sprintf("%s is no longer available", p.Name))
			continue
		}

		unit := p.Price
		if it.UnitPrice != unit {
			mismatched = append(mismatched, fmt.Sprintf(
				"%s: submitted price %.2f does not match catalog price %.2f", p.Name, it.UnitPrice, unit))
			continue
		}

		line := round2(unit * float64(it.Quantity))
		priced.Items = append(priced.Items, models.LineItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Image:       p.ImagePath,
			Quantity:    it.Quantity,
			Size:        it.Size,
			Crust:       it.Crust,
			UnitPrice:   unit,
			LineTotal:   line,
		})
		priced.Subtotal = round2(priced.Subtotal + line)
	}

	if len(stale) > 0 {
		metrics.OrderValidationFailures.WithLabelValues("invalid_product").Inc()
		return priced, &ValidationError{Reason: ReasonStaleCart, Failures: stale}
	}
	if len(mismatched) > 0 {
		metrics.OrderValidationFailures.WithLabelValues("price_mismatch").Inc()
		return priced, &ValidationError{Reason: ReasonValidationFailed, Failures: mismatched}
	}

	if deliveryType == models.DeliveryTypeDelivery {
		priced.DeliveryFee = config.DeliveryFee()
	}
	priced.Total = round2(priced.Subtotal + priced.DeliveryFee)

	if math.Abs(priced.Total-claimedTotal) > totalEpsilon {
		metrics.OrderValidationFailures.WithLabelValues("total_mismatch").Inc()
		return priced, &ValidationError{
			Reason: ReasonValidationFailed,
			Failures: []string{fmt.Sprintf(
				"submitted total %.2f does not match computed total %.2f", claimedTotal, priced.Total)},
		}
	}

	return priced, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
