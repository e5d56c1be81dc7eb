package handlers

import (
	"errors"
	"net/http"

	"grocery_backend/internal/services"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AddToCartRequest is the payload for POST /cart/add.
type AddToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest is the payload for PUT /cart/update/:productId.
// A quantity of zero removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// RemoveFromCartRequest is the payload for POST /cart/remove. Without a
// productId the whole cart is emptied.
type RemoveFromCartRequest struct {
	ProductID *int64 `json:"productId" binding:"omitempty,gt=0"`
}

// CartHandler serves the current user's cart.
type CartHandler struct {
	cartService services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cs services.CartService) *CartHandler {
	return &CartHandler{cartService: cs}
}

func (h *CartHandler) respondCartError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid cart request.", err.Error()))
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeProductNotFound, "Product not found or unavailable.", err.Error()))
	case errors.Is(err, services.ErrCartItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product is not in the cart.", err.Error()))
	default:
		utils.LogError(err, "CartHandler: "+op+" failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update cart.", "Internal error"))
	}
}

// GetCart returns the cart with current prices.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.respondCartError(c, err, "GetCart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem increments the quantity of a product in the cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(c, err, "AddItem")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateItem sets the quantity of a product already in the cart.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId", "product ID")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	cart, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, productID, *req.Quantity)
	if err != nil {
		h.respondCartError(c, err, "UpdateItem")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem drops one line, or every line when no productId is given.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req RemoveFromCartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
			return
		}
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		h.respondCartError(c, err, "RemoveItem")
		return
	}
	c.JSON(http.StatusOK, cart)
}
