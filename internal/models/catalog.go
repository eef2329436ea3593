package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRef is a lightweight product pointer used for suggestions and
// upsells (denormalized so no extra lookup is needed at render time).
type ProductRef struct {
	ProductID string `bson:"product_id" json:"productId"`
	Name      string `bson:"name" json:"name"`
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID       string             `bson:"product_id" json:"product_id"`
	Name            string             `bson:"name" json:"name"`
	Category        string             `bson:"category,omitempty" json:"category,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	Stock           int                `bson:"stock" json:"stock"`
	ImageURL        string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	RelatedProducts []ProductRef       `bson:"related_products,omitempty" json:"related_products,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// Stock status buckets used on the admin dashboard.
const (
	StockInStock    = "in_stock"
	StockLow        = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// StockStatus classifies the current stock level.
func (p *Product) StockStatus() string {
	switch {
	case p.Stock > 5:
		return StockInStock
	case p.Stock > 0:
		return StockLow
	default:
		return StockOutOfStock
	}
}

type Promotion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Discount  float64            `bson:"discount" json:"discount"`
	Active    bool               `bson:"active" json:"active"`
	ExpiresAt *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Valid reports whether the promotion may still be applied.
func (p *Promotion) Valid(now time.Time) bool {
	if p == nil || !p.Active {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}
