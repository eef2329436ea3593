package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Total     float64 `bson:"total" json:"total"` // price * quantity
}

type Cart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Items         []CartItem         `bson:"items" json:"items"`
	PromotionCode string             `bson:"promotion_code,omitempty" json:"promotion_code,omitempty"`
	Discount      float64            `bson:"discount" json:"discount"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Subtotal is the sum of line totals before discount.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, i := range c.Items {
		sum += i.Total
	}
	return round2(sum)
}

// FinalTotal is subtotal minus discount, never negative.
func (c *Cart) FinalTotal() float64 {
	t := c.Subtotal() - c.Discount
	if t < 0 {
		t = 0
	}
	return round2(t)
}

// CartSummary is the normalized client-facing view of a cart, also used as
// the cart preview inside assistant payloads.
type CartSummary struct {
	UserID        string     `json:"user_id"`
	Items         []CartItem `json:"items"`
	PromotionCode string     `json:"promotion_code,omitempty"`
	Discount      float64    `json:"discount"`
	FinalTotal    float64    `json:"final_total"`
}

// Summarize builds the client view of a cart.
func (c *Cart) Summarize() *CartSummary {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return &CartSummary{
		UserID:        c.UserID,
		Items:         items,
		PromotionCode: c.PromotionCode,
		Discount:      c.Discount,
		FinalTotal:    c.FinalTotal(),
	}
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"total_amount" json:"total_amount"`
	Discount    float64            `bson:"discount" json:"discount"`
	Status      string             `bson:"status" json:"status"` // Pending | Paid | ...
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
