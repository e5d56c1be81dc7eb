package services

import (
	"errors"
	"fmt"

	"grocery_backend/internal/metrics"
)

var (
	ErrValidation = errors.New("validation error")

	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponCodeTaken = errors.New("coupon code already exists")
	ErrCouponRejected  = errors.New("coupon rejected")

	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// Checkout rejection kinds. Every checkout failure unwraps to exactly one of these.
var (
	ErrInvalidTimeWindow        = errors.New("outside order hours")
	ErrEmptyCart                = errors.New("empty cart")
	ErrMissingRequiredField     = errors.New("missing required field")
	ErrInvalidPhone             = errors.New("invalid phone number")
	ErrDeliveryPointUnavailable = errors.New("delivery point unavailable")
	ErrBelowMinimumOrder        = errors.New("below minimum order amount")
	ErrInvalidCoupon            = errors.New("invalid coupon")
	ErrPersistenceFailure       = errors.New("persistence failure")
)

var checkoutReasons = map[error]string{
	ErrInvalidTimeWindow:        "invalid_time_window",
	ErrEmptyCart:                "empty_cart",
	ErrMissingRequiredField:     "missing_required_field",
	ErrInvalidPhone:             "invalid_phone",
	ErrDeliveryPointUnavailable: "delivery_point_unavailable",
	ErrProductNotFound:          "product_not_found",
	ErrBelowMinimumOrder:        "below_minimum_order",
	ErrInvalidCoupon:            "invalid_coupon",
	ErrPersistenceFailure:       "persistence_failure",
}

// CheckoutError carries a user-facing message and unwraps to its kind.
type CheckoutError struct {
	Kind    error
	Message string
	cause   error
}

func (e *CheckoutError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *CheckoutError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// Reason is a stable label for the rejection kind.
func (e *CheckoutError) Reason() string {
	return checkoutReasons[e.Kind]
}

func reject(kind error, format string, args ...interface{}) *CheckoutError {
	e := &CheckoutError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	metrics.CheckoutRejections.WithLabelValues(e.Reason()).Inc()
	return e
}

func persistenceFailure(message string, cause error) *CheckoutError {
	e := reject(ErrPersistenceFailure, "%s", message)
	e.cause = cause
	return e
}
