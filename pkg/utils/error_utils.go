package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Standardized APIError response
type APIError struct {
	StatusCode int    `json:"-"`              // HTTP status code, not included in JSON response body for error itself
	Code       string `json:"code,omitempty"` // Application-specific error code
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Common Error Constants
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
)

// Checkout rejection codes.
const (
	ErrCodeInvalidTimeWindow        = "INVALID_TIME_WINDOW"
	ErrCodeEmptyCart                = "EMPTY_CART"
	ErrCodeMissingRequiredField     = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidPhone             = "INVALID_PHONE"
	ErrCodeDeliveryPointUnavailable = "DELIVERY_POINT_UNAVAILABLE"
	ErrCodeProductNotFound          = "PRODUCT_NOT_FOUND"
	ErrCodeBelowMinimumOrder        = "BELOW_MINIMUM_ORDER"
	ErrCodeInvalidCoupon            = "INVALID_COUPON"
	ErrCodePersistenceFailure       = "PERSISTENCE_FAILURE"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Helper to return a standard validation error
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}
