package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"grocery_backend/internal/models"
	"grocery_backend/internal/services"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

var checkoutErrorCodes = map[error]string{
	services.ErrInvalidTimeWindow:        utils.ErrCodeInvalidTimeWindow,
	services.ErrEmptyCart:                utils.ErrCodeEmptyCart,
	services.ErrMissingRequiredField:     utils.ErrCodeMissingRequiredField,
	services.ErrInvalidPhone:             utils.ErrCodeInvalidPhone,
	services.ErrDeliveryPointUnavailable: utils.ErrCodeDeliveryPointUnavailable,
	services.ErrProductNotFound:          utils.ErrCodeProductNotFound,
	services.ErrBelowMinimumOrder:        utils.ErrCodeBelowMinimumOrder,
	services.ErrInvalidCoupon:            utils.ErrCodeInvalidCoupon,
	services.ErrPersistenceFailure:       utils.ErrCodePersistenceFailure,
}

// OrderHandler holds the checkout and order services.
type OrderHandler struct {
	checkoutService services.CheckoutService
	orderService    services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(cs services.CheckoutService, os services.OrderService) *OrderHandler {
	return &OrderHandler{checkoutService: cs, orderService: os}
}

// PlaceOrder runs the checkout pipeline for the current user.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("PlaceOrder: invalid payload", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}

	result, err := h.checkoutService.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func respondCheckoutError(c *gin.Context, err error) {
	var ce *services.CheckoutError
	if !errors.As(err, &ce) {
		utils.LogError(err, "PlaceOrder: unexpected error from checkout")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodePersistenceFailure, "Failed to place order.", "Internal error"))
		return
	}
	code, known := checkoutErrorCodes[ce.Kind]
	if !known || errors.Is(ce.Kind, services.ErrPersistenceFailure) {
		utils.LogError(err, "PlaceOrder: persistence failure")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodePersistenceFailure, ce.Message, "Internal error"))
		return
	}
	utils.LogDebug("PlaceOrder: rejected", map[string]interface{}{"reason": ce.Reason()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, code, ce.Message, ce.Reason()))
}

// GetMyOrders lists the current user's orders, newest first.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orders, err := h.orderService.ListMyOrders(c.Request.Context(), userID)
	if err != nil {
		utils.LogError(err, "GetMyOrders: Error from orderService.ListMyOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderByID returns one order. Customers only see their own.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "order ID")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID, isAdmin(c))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
			return
		}
		utils.LogError(err, "GetOrderByID: Error from orderService.GetOrder")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels the current user's order while it is still preparing.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "order ID")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
		case errors.Is(err, services.ErrOrderNotCancellable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order can no longer be cancelled.", err.Error()))
		default:
			utils.LogError(err, "CancelOrder: Error from orderService.CancelOrder")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders handles fetching all orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &userID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters.Page, filters.PageSize = page, pageSize

	orders, totalCount, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOrderStatus), errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order filter.", err.Error()))
		default:
			utils.LogError(err, "GetOrders: Error from orderService.ListOrders")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, paginated(orders, totalCount, page, pageSize))
}

// UpdateOrderStatus lets an admin move an order to a new status.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id", "order ID")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOrderStatus):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order status provided.", err.Error()))
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", ""))
		default:
			utils.LogError(err, "UpdateOrderStatus: Error from orderService.UpdateStatus")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update order status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}
