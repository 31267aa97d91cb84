package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pohrebni-vence.cz/storefront/pkg/auth"
	"pohrebni-vence.cz/storefront/pkg/cart"
	"pohrebni-vence.cz/storefront/pkg/checkout"
	"pohrebni-vence.cz/storefront/pkg/delivery"
	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/metrics"
	"pohrebni-vence.cz/storefront/pkg/redis"
	"pohrebni-vence.cz/storefront/pkg/store"
)

// Deps are the services the HTTP layer calls.
type Deps struct {
	Config   *global.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Store    store.Store
	Cache    redis.Store
	Carts    *cart.Service
	Checkout *checkout.Service
	Calendar *delivery.Calendar
	Verifier *auth.Verifier
}

func NewEngine(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	useJSONFieldNames()
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(d.Logger, d.Metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", CacheHeader, CacheConsistencyHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &Handler{
		cfg:      d.Config,
		logger:   d.Logger.With("component", "http"),
		store:    d.Store,
		cache:    d.Cache,
		carts:    d.Carts,
		checkout: d.Checkout,
		calendar: d.Calendar,
		now:      time.Now,
	}

	api := router.Group("/api")
	api.Use(OptionalAuth(d.Verifier))
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("/:id/price", h.PriceProduct)
			products.POST("/:id/validate", h.ValidateProduct)
		}

		carts := api.Group("/cart")
		{
			carts.GET("/:sessionId", h.GetCart)
			carts.POST("/:sessionId/items", h.AddToCart)
			carts.PUT("/:sessionId/items/:itemId", h.UpdateCartItem)
			carts.DELETE("/:sessionId/items/:itemId", h.RemoveFromCart)
			carts.DELETE("/:sessionId/clear", h.ClearCart)
			carts.GET("/:sessionId/cache", h.CartCacheState)
		}

		api.GET("/delivery/dates", h.DeliveryDates)

		checkouts := api.Group("/checkout")
		{
			checkouts.POST("/complete", h.CompleteCheckout)
			checkouts.POST("/:sessionId", h.SubmitCheckout)
		}

		cron := api.Group("/cron")
		cron.Use(CronAuth(d.Config.CronSecret))
		{
			cron.POST("/cart-cleanup", h.CleanupCarts)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, global.ErrorResponse("route not found", nil))
	})
	return router
}
