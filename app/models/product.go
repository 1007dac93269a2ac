package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the authoritative catalog record. Order creation consults it
// for price and availability and never trusts client-submitted values.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"        json:"id"`
	Name        string             `bson:"name"                 json:"name"`
	Description string             `bson:"description"          json:"description"`
	Category    string             `bson:"category"             json:"category"`
	Price       float64            `bson:"price"                json:"price"`
	ImagePath   string             `bson:"image_path,omitempty" json:"image_path,omitempty"`
	ImageURL    string             `bson:"-"                    json:"image_url,omitempty"`
	IsAvailable bool               `bson:"is_available"         json:"is_available"`
	CreatedAt   time.Time          `bson:"created_at"           json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"           json:"updated_at"`
}
