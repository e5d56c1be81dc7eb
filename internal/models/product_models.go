package models

import "time"

// Product is a catalog entry. The catalog is managed elsewhere; this service only reads it.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductLookup is the result of resolving a product id: either a found
// product or a miss. The zero value is a miss.
type ProductLookup struct {
	product *Product
}

// FoundProduct wraps a resolved product.
func FoundProduct(p Product) ProductLookup {
	return ProductLookup{product: &p}
}

// MissingProduct is the lookup result for an id with no catalog entry.
func MissingProduct() ProductLookup {
	return ProductLookup{}
}

// Get returns the product and whether it was found.
func (l ProductLookup) Get() (Product, bool) {
	if l.product == nil {
		return Product{}, false
	}
	return *l.product, true
}
