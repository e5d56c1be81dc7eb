package handlers

import (
	"errors"
	"net/http"

	"grocery_backend/internal/models"
	"grocery_backend/internal/services"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the store settings.
type SettingsHandler struct {
	settingsService services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ss services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

// GetSettings returns the full settings record.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetSettings: Error from settingsService.Get")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings applies a partial update. Omitted fields keep their values.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	s, err := h.settingsService.Update(c.Request.Context(), patch)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid settings.", err.Error()))
			return
		}
		utils.LogError(err, "UpdateSettings: Error from settingsService.Update")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetOrderHours reports whether ordering is open right now.
func (h *SettingsHandler) GetOrderHours(c *gin.Context) {
	info, err := h.settingsService.OrderHours(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetOrderHours: Error from settingsService.OrderHours")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order hours.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetDeliveryPoints lists the enabled delivery points and the minimum order.
func (h *SettingsHandler) GetDeliveryPoints(c *gin.Context) {
	info, err := h.settingsService.DeliveryPoints(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetDeliveryPoints: Error from settingsService.DeliveryPoints")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch delivery points.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, info)
}
