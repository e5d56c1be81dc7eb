package models

import "time"

// Order status values as stored and shown to customers.
const (
	OrderStatusPreparing = "Hazırlanıyor"
	OrderStatusOnTheWay  = "Yolda"
	OrderStatusDelivered = "Teslim Edildi"
	OrderStatusCancelled = "İptal Edildi"
)

// IsValidOrderStatus reports whether status is one of the known order states.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPreparing, OrderStatusOnTheWay, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an immutable snapshot of a checkout plus its lifecycle status.
type Order struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"userId"`
	Items             []OrderItem `json:"items"`
	SubtotalAmount    float64     `json:"subtotalAmount"`
	DiscountAmount    float64     `json:"discountAmount"`
	TotalAmount       float64     `json:"totalAmount"`
	City              string      `json:"city"`
	Phone             string      `json:"phone"`
	CouponCode        *string     `json:"couponCode,omitempty"`
	DeliveryPoint     string      `json:"deliveryPoint"`
	DeliveryPointName string      `json:"deliveryPointName"`
	Note              *string     `json:"note,omitempty"`
	Status            string      `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// OrderItem snapshots name and unit price at order time.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"orderId"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	UserID   *int64  `form:"user_id"`
	Status   *string `form:"status"`
	Date     *string `form:"date"` // YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
