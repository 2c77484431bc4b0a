package httpserver

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Entry, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metricsMiddleware(deps.Metrics))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Probes, logger))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/", identityMiddleware(deps.Customers, deps.Guests))

	api.POST("/auth/anonymous", h.issueGuest)
	api.DELETE("/auth/anonymous", requireIdentity, h.endGuest)
	api.POST("/auth/signup", h.signup)
	api.POST("/auth/token", h.token)
	api.POST("/auth/refresh", h.refresh)
	api.POST("/auth/logout", requireUser, h.logout)
	api.GET("/me", requireUser, h.me)
	api.PUT("/me", requireUser, h.updateMe)
	api.GET("/me/recently-viewed", requireIdentity, h.recentlyViewed)

	api.GET("/categories", h.categories)
	api.GET("/products", h.listProducts)
	api.GET("/products/filters", h.filterOptions)
	api.GET("/products/featured", h.featured)
	api.GET("/products/:slug", h.productBySlug)
	api.GET("/products/:slug/similar", h.similar)

	cart := api.Group("/cart", requireIdentity)
	cart.GET("", h.getCart)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items/:productId", h.updateCartItem)
	cart.DELETE("/items/:productId", h.removeCartItem)
	cart.DELETE("", h.clearCart)
	cart.POST("/merge", requireUser, h.mergeCart)

	orders := api.Group("/orders", requireUser)
	orders.POST("", h.placeOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)

	admin := api.Group("/admin", requireAdmin)
	admin.GET("/stats", h.adminStats)
	admin.GET("/orders", h.adminListOrders)
	admin.PATCH("/orders/:id/status", h.adminUpdateStatus)
	admin.GET("/products", h.adminListProducts)
	admin.POST("/products", h.adminCreateProduct)
	admin.PUT("/products/:id", h.adminUpdateProduct)
	admin.DELETE("/products/:id", h.adminDeleteProduct)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", guestTokenHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

type handlers struct {
	deps   Deps
	logger *logrus.Entry
}
