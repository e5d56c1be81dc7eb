package router

import (
	"time"

	"grocery_backend/internal/handlers"
	"grocery_backend/internal/middleware"
	"grocery_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Coupons  *handlers.CouponHandler
	Settings *handlers.SettingsHandler
	Health   *handlers.HealthHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	ServiceName string
	CORSOrigins []string
	Tokens      middleware.TokenValidator
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, h Handlers, opts Options) {
	engine.Use(
		gin.Recovery(),
		otelgin.Middleware(opts.ServiceName),
		utils.GinLogger(),
		middleware.MetricsMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	engine.GET("/healthz", h.Health.Live)
	engine.GET("/readyz", h.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := engine.Group("/api/v1")

	SetupPublicSettingsRoutes(apiV1.Group("/settings"), h.Settings)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(opts.Tokens))
	{
		SetupCartRoutes(authenticated, h.Cart)
		SetupOrderRoutes(authenticated, h.Orders)
		SetupCouponRoutes(authenticated, h.Coupons)
		SetupAdminRoutes(authenticated, h)
	}
}
