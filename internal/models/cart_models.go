package models

import "time"

// CartItem is a stored cart line. ProductID is a weak reference: the product
// may disappear from the catalog while the line still exists.
type CartItem struct {
	UserID    int64     `json:"-"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// CartLine is a cart item joined with its current catalog data.
type CartLine struct {
	ProductID   int64     `json:"productId"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	LineTotal   float64   `json:"lineTotal"`
	IsAvailable bool      `json:"isAvailable"`
	AddedAt     time.Time `json:"addedAt"`
}

// Cart is the materialized view returned to clients.
type Cart struct {
	Items     []CartLine `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	ItemCount int        `json:"itemCount"`
}
