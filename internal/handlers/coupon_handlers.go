package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"grocery_backend/internal/models"
	"grocery_backend/internal/services"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SetCouponActiveRequest toggles a coupon on or off.
type SetCouponActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// IssueWelcomeCouponRequest asks for a referral welcome coupon.
type IssueWelcomeCouponRequest struct {
	UserID     int64 `json:"userId" binding:"required,gt=0"`
	ReferrerID int64 `json:"referrerId" binding:"required,gt=0"`
}

// CouponHandler serves customer and admin coupon endpoints.
type CouponHandler struct {
	couponService services.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(cs services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: cs}
}

// ValidateCoupon answers whether the current user could apply a code to an
// order of the given amount. Invalid codes are a 200 with valid=false.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code := c.Query("code")
	if utils.IsEmpty(code) {
		utils.RespondValidationFailed(c, "code is required")
		return
	}
	amount, err := strconv.ParseFloat(c.DefaultQuery("orderAmount", "0"), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		utils.RespondValidationFailed(c, "orderAmount must be a non-negative number")
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), code, userID, amount)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "ValidateCoupon: Error from couponService.Validate")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to validate coupon.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAvailableCoupons returns the coupons the current user may still use.
func (h *CouponHandler) ListAvailableCoupons(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	coupons, err := h.couponService.ListAvailable(c.Request.Context(), userID)
	if err != nil {
		utils.LogError(err, "ListAvailableCoupons: Error from couponService.ListAvailable")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch coupons.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, coupons)
}

// GetCoupons is the paginated admin listing.
func (h *CouponHandler) GetCoupons(c *gin.Context) {
	var filters models.CouponFilters
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid active format.", err.Error()))
			return
		}
		filters.Active = &active
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := utils.ParsePositiveID(userIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &userID
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters.Page, filters.PageSize = page, pageSize

	coupons, total, err := h.couponService.List(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetCoupons: Error from couponService.List")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch coupons.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, paginated(coupons, total, page, pageSize))
}

// CreateCoupon adds a coupon. Codes are stored upper-cased.
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req services.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	coupon, err := h.couponService.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid coupon.", err.Error()))
		case errors.Is(err, services.ErrCouponCodeTaken):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Coupon code already exists.", err.Error()))
		default:
			utils.LogError(err, "CreateCoupon: Error from couponService.Create")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create coupon.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// SetCouponActive enables or disables a coupon.
func (h *CouponHandler) SetCouponActive(c *gin.Context) {
	couponID, ok := pathID(c, "id", "coupon ID")
	if !ok {
		return
	}
	var req SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	if err := h.couponService.SetActive(c.Request.Context(), couponID, *req.IsActive); err != nil {
		h.respondCouponLookupError(c, err, "SetCouponActive")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": couponID, "isActive": *req.IsActive})
}

// DeleteCoupon removes a coupon.
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	couponID, ok := pathID(c, "id", "coupon ID")
	if !ok {
		return
	}
	if err := h.couponService.Delete(c.Request.Context(), couponID); err != nil {
		h.respondCouponLookupError(c, err, "DeleteCoupon")
		return
	}
	c.Status(http.StatusNoContent)
}

// IssueWelcomeCoupon creates a referral welcome coupon for a new user.
func (h *CouponHandler) IssueWelcomeCoupon(c *gin.Context) {
	var req IssueWelcomeCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	coupon, err := h.couponService.IssueWelcomeCoupon(c.Request.Context(), req.UserID, req.ReferrerID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid referral.", err.Error()))
			return
		}
		utils.LogError(err, "IssueWelcomeCoupon: Error from couponService.IssueWelcomeCoupon")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to issue coupon.", "Internal error"))
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) respondCouponLookupError(c *gin.Context, err error, op string) {
	if errors.Is(err, services.ErrCouponNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Coupon not found.", ""))
		return
	}
	utils.LogError(err, op+": Error from couponService")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update coupon.", "Internal error"))
}
