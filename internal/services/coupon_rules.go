package services

import (
	"fmt"
	"math"
	"time"

	"grocery_backend/internal/models"

	"github.com/shopspring/decimal"
)

// CouponRejection is why a coupon cannot be applied.
type CouponRejection string

const (
	RejectNotFound       CouponRejection = "not_found"
	RejectInactive       CouponRejection = "inactive"
	RejectExpired        CouponRejection = "expired"
	RejectNotOwner       CouponRejection = "not_owner"
	RejectUsageLimit     CouponRejection = "usage_limit_reached"
	RejectMinimumOrder   CouponRejection = "minimum_order_not_met"
	RejectUserLimit      CouponRejection = "user_limit_reached"
	RejectFirstOrderOnly CouponRejection = "first_order_only"
	RejectNewUsersOnly   CouponRejection = "new_users_only"
)

// Message renders the rejection for customers.
func (r CouponRejection) Message(c *models.Coupon) string {
	switch r {
	case RejectNotFound:
		return "Coupon code not found."
	case RejectInactive:
		return "This coupon is no longer active."
	case RejectExpired:
		return "This coupon has expired."
	case RejectNotOwner:
		return "This coupon belongs to another account."
	case RejectUsageLimit:
		return "This coupon has reached its usage limit."
	case RejectMinimumOrder:
		if c != nil {
			return fmt.Sprintf("This coupon requires a minimum order of %.2f TL.", c.MinimumOrderAmount)
		}
		return "Your order does not meet this coupon's minimum amount."
	case RejectUserLimit:
		return "You have already used this coupon."
	case RejectFirstOrderOnly:
		return "This coupon is only valid on your first order."
	case RejectNewUsersOnly:
		return "This coupon is only available to new customers."
	}
	return "This coupon cannot be applied."
}

// CouponRejectionError reports a rule failure found while redeeming.
type CouponRejectionError struct {
	Reason  CouponRejection
	Message string
}

func (e *CouponRejectionError) Error() string { return e.Message }
func (e *CouponRejectionError) Unwrap() error { return ErrCouponRejected }

func newCouponRejection(r CouponRejection, c *models.Coupon) *CouponRejectionError {
	return &CouponRejectionError{Reason: r, Message: r.Message(c)}
}

// CouponContext is everything about the user and order a coupon rule can look at.
type CouponContext struct {
	UserID      int64
	OrderAmount float64
	Now         time.Time
	// UserUsages is how often this user has already redeemed the coupon.
	UserUsages int
	// PriorOrders counts the user's non-cancelled orders; AnyPriorOrders includes cancelled ones.
	PriorOrders    int
	AnyPriorOrders int
}

// EvaluateCoupon applies the coupon rules in order and returns the first failure,
// or "" when the coupon applies.
func EvaluateCoupon(c models.Coupon, cc CouponContext) CouponRejection {
	if !c.IsActive {
		return RejectInactive
	}
	if c.IsExpired(cc.Now) {
		return RejectExpired
	}
	if c.UserID != nil && *c.UserID != cc.UserID {
		return RejectNotOwner
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return RejectUsageLimit
	}
	if cc.OrderAmount < c.MinimumOrderAmount {
		return RejectMinimumOrder
	}
	if c.UserUsageLimit > 0 && cc.UserUsages >= c.UserUsageLimit {
		return RejectUserLimit
	}
	if c.FirstOrderOnly && cc.PriorOrders > 0 {
		return RejectFirstOrderOnly
	}
	if c.NewUsersOnly && cc.AnyPriorOrders > 0 {
		return RejectNewUsersOnly
	}
	return ""
}

// CalculateDiscount computes the discount for orderAmount. Percentage discounts
// are capped by MaximumDiscount, and no discount exceeds the order amount.
func CalculateDiscount(c models.Coupon, orderAmount float64) float64 {
	if math.IsNaN(orderAmount) || math.IsInf(orderAmount, 0) {
		return 0
	}
	amount := decimal.NewFromFloat(orderAmount)
	if !amount.IsPositive() {
		return 0
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		discount = amount.Mul(decimal.NewFromFloat(c.DiscountPercentage)).Div(decimal.NewFromInt(100))
		if c.MaximumDiscount != nil {
			discount = decimal.Min(discount, decimal.NewFromFloat(*c.MaximumDiscount))
		}
	case models.DiscountTypeFixed:
		discount = decimal.NewFromFloat(c.DiscountAmount)
	default:
		return 0
	}

	discount = decimal.Min(discount, amount)
	if discount.IsNegative() {
		return 0
	}
	return roundMoney(discount)
}
