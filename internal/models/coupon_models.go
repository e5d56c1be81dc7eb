package models

import (
	"strings"
	"time"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is a discount code. A coupon without UserID is general (anyone may
// use it); otherwise it is bound to that user.
type Coupon struct {
	ID                 int64     `json:"id"`
	Code               string    `json:"code"`
	DiscountType       string    `json:"discountType"`
	DiscountPercentage float64   `json:"discountPercentage"`
	DiscountAmount     float64   `json:"discountAmount"`
	MinimumOrderAmount float64   `json:"minimumOrderAmount"`
	MaximumDiscount    *float64  `json:"maximumDiscount,omitempty"`
	UsageLimit         *int      `json:"usageLimit,omitempty"`
	UsageCount         int       `json:"usageCount"`
	UserUsageLimit     int       `json:"userUsageLimit"`
	ExpirationDate     time.Time `json:"expirationDate"`
	IsActive           bool      `json:"isActive"`
	UserID             *int64    `json:"userId,omitempty"`
	FirstOrderOnly     bool      `json:"firstOrderOnly"`
	NewUsersOnly       bool      `json:"newUsersOnly"`
	IsReferralCoupon   bool      `json:"isReferralCoupon"`
	ReferredBy         *int64    `json:"referredBy,omitempty"`
	Description        string    `json:"description"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// IsGeneral reports whether the coupon is usable by any user.
func (c Coupon) IsGeneral() bool {
	return c.UserID == nil
}

// IsExpired reports whether the coupon's expiration date has passed at now.
func (c Coupon) IsExpired(now time.Time) bool {
	return now.After(c.ExpirationDate)
}

// NormalizeCouponCode trims and upper-cases a user supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponUsage records one redemption. (CouponID, OrderID) is unique.
type CouponUsage struct {
	CouponID int64     `json:"couponId"`
	UserID   int64     `json:"userId"`
	OrderID  int64     `json:"orderId"`
	UsedAt   time.Time `json:"usedAt"`
}

// CouponFilters narrows the admin coupon listing.
type CouponFilters struct {
	Active   *bool  `form:"active"`
	UserID   *int64 `form:"user_id"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
