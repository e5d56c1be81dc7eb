package router

import (
	"grocery_backend/internal/handlers"
	"grocery_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPublicSettingsRoutes exposes what the storefront needs before login.
func SetupPublicSettingsRoutes(settingsRoutes *gin.RouterGroup, settingsHandler *handlers.SettingsHandler) {
	settingsRoutes.GET("/order-hours", settingsHandler.GetOrderHours)
	settingsRoutes.GET("/delivery-points", settingsHandler.GetDeliveryPoints)
}

// SetupCartRoutes sets up the cart routes.
func SetupCartRoutes(authenticatedGroup *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	cartRoutes := authenticatedGroup.Group("/cart")
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.POST("/add", cartHandler.AddItem)
		cartRoutes.PUT("/update/:productId", cartHandler.UpdateItem)
		cartRoutes.POST("/remove", cartHandler.RemoveItem)
	}
}

// SetupOrderRoutes sets up the customer order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("/place", orderHandler.PlaceOrder)
		orderRoutes.GET("/my", orderHandler.GetMyOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}

// SetupCouponRoutes sets up the customer coupon routes.
func SetupCouponRoutes(authenticatedGroup *gin.RouterGroup, couponHandler *handlers.CouponHandler) {
	couponRoutes := authenticatedGroup.Group("/coupons")
	{
		couponRoutes.GET("", couponHandler.ListAvailableCoupons)
		couponRoutes.GET("/validate", couponHandler.ValidateCoupon)
	}
}

// SetupAdminRoutes sets up the admin-only routes.
func SetupAdminRoutes(authenticatedGroup *gin.RouterGroup, h Handlers) {
	adminRoutes := authenticatedGroup.Group("/admin")
	adminRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin))
	{
		adminRoutes.GET("/orders", h.Orders.GetOrders)
		adminRoutes.PATCH("/orders/:id/status", h.Orders.UpdateOrderStatus)

		adminRoutes.GET("/coupons", h.Coupons.GetCoupons)
		adminRoutes.POST("/coupons", h.Coupons.CreateCoupon)
		adminRoutes.POST("/coupons/welcome", h.Coupons.IssueWelcomeCoupon)
		adminRoutes.PATCH("/coupons/:id/active", h.Coupons.SetCouponActive)
		adminRoutes.DELETE("/coupons/:id", h.Coupons.DeleteCoupon)

		adminRoutes.GET("/settings", h.Settings.GetSettings)
		adminRoutes.PUT("/settings", h.Settings.UpdateSettings)
	}
}
