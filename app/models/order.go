package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. confirmed is always the initial state; delivered and
// cancelled are terminal.
const (
	StatusConfirmed      = "confirmed"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

// Delivery types.
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypeTakeaway = "takeaway"
)

// TakeawayAddress is the sentinel stored when no delivery address applies.
const TakeawayAddress = "N/A"

// forwardTransitions is the strict transition table: the fixed forward
// sequence, plus cancelled from any non-terminal state. Terminal states
// allow nothing.
var forwardTransitions = map[string][]string{
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReady, StatusCancelled},
	StatusReady:          {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// AllStatuses lists every valid order status.
func AllStatuses() []string {
	return []string{
		StatusConfirmed, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled,
	}
}

// ActiveStatuses lists the non-terminal statuses counted against the
// per-customer active-order cap.
func ActiveStatuses() []string {
	return []string{StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery}
}

// ValidStatus reports whether s is a member of the status set.
func ValidStatus(s string) bool {
	_, ok := forwardTransitions[s]
	return ok
}

// TerminalStatus reports whether s is delivered or cancelled.
func TerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether from → to is a legal move under the strict
// transition table.
func CanTransition(from, to string) bool {
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem is an immutable snapshot of a product at time of purchase.
type LineItem struct {
	ProductID   primitive.ObjectID `bson:"product_id"            json:"product_id"`
	Name        string             `bson:"name"                  json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty"       json:"image,omitempty"`
	Quantity    int                `bson:"quantity"              json:"quantity"`
	Size        string             `bson:"size,omitempty"        json:"size,omitempty"`
	Crust       string             `bson:"crust,omitempty"       json:"crust,omitempty"`
	UnitPrice   float64            `bson:"unit_price"            json:"unit_price"`
	LineTotal   float64            `bson:"line_total"            json:"line_total"`
}

// StatusEntry is one append-only status_history record.
type StatusEntry struct {
	Status    string    `bson:"status"         json:"status"`
	Timestamp time.Time `bson:"timestamp"      json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Order belongs to exactly one customer. Items and monetary fields are
// immutable after creation; only status transitions mutate the document.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"              json:"id"`
	OrderNumber       string             `bson:"order_number"               json:"order_number"`
	CustomerID        primitive.ObjectID `bson:"customer_id"                json:"customer_id"`
	CustomerName      string             `bson:"customer_name"              json:"customer_name"`
	Items             []LineItem         `bson:"items"                      json:"items"`
	Status            string             `bson:"status"                     json:"status"`
	StatusHistory     []StatusEntry      `bson:"status_history"             json:"status_history"`
	Subtotal          float64            `bson:"subtotal"                   json:"subtotal"`
	DeliveryFee       float64            `bson:"delivery_fee"               json:"delivery_fee"`
	Total             float64            `bson:"total"                      json:"total"`
	PaymentStatus     string             `bson:"payment_status"             json:"payment_status"`
	DeliveryType      string             `bson:"delivery_type"              json:"delivery_type"`
	DeliveryAddress   string             `bson:"delivery_address"           json:"delivery_address"`
	PromoCode         string             `bson:"promo_code,omitempty"       json:"promo_code,omitempty"`
	EstimatedDelivery time.Time          `bson:"estimated_delivery"         json:"estimated_delivery"`
	CreatedAt         time.Time          `bson:"created_at"                 json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"                 json:"updated_at"`
}
