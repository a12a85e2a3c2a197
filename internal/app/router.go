package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/auth"
	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
	"ridehail/internal/ws"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	RideHandler   *handler.RideHandler
	DriverHandler *handler.DriverHandler
	WSHandler     *ws.Handler
	Tokens        *auth.TokenIssuer
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Websocket endpoint authenticates via the token path parameter.
	router.GET("/ws/:token", deps.WSHandler.Handle)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Public auth routes.
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", deps.AuthHandler.Register)
			authGroup.POST("/login", deps.AuthHandler.Login)
		}

		// Everything below requires a valid token.
		authed := v1.Group("")
		authed.Use(middleware.Auth(deps.Tokens))

		authed.GET("/users/me", deps.UserHandler.Me)

		// Wallet routes.
		wallet := authed.Group("/wallet")
		{
			wallet.POST("/topup", deps.UserHandler.TopUp)
			wallet.GET("/balance", deps.UserHandler.Balance)
			wallet.GET("/transactions", deps.UserHandler.Transactions)
		}

		// Ride routes.
		rides := authed.Group("/rides")
		{
			rides.POST("", middleware.RequireRole(domain.RoleRider), deps.RideHandler.Create)
			rides.GET("", deps.RideHandler.List)
			rides.GET("/available", middleware.RequireRole(domain.RoleDriver), deps.RideHandler.Available)
			rides.GET("/:id", deps.RideHandler.Get)
			rides.POST("/:id/accept", middleware.RequireRole(domain.RoleDriver), deps.RideHandler.Accept)
			rides.POST("/:id/match", middleware.RequireRole(domain.RoleRider, domain.RoleAdmin), deps.RideHandler.Match)
			rides.POST("/:id/start", middleware.RequireRole(domain.RoleDriver), deps.RideHandler.Start)
			rides.POST("/:id/complete", middleware.RequireRole(domain.RoleDriver), deps.RideHandler.Complete)
			rides.POST("/:id/cancel", deps.RideHandler.Cancel)
			rides.POST("/:id/rate", middleware.RequireRole(domain.RoleRider), deps.RideHandler.Rate)
		}

		// Driver routes.
		drivers := authed.Group("/drivers")
		drivers.Use(middleware.RequireRole(domain.RoleDriver))
		{
			drivers.GET("/me", deps.DriverHandler.Profile)
			drivers.PUT("/location", deps.DriverHandler.UpdateLocation)
			drivers.PUT("/availability", deps.DriverHandler.SetAvailability)
		}

		// Admin routes.
		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/revenue", deps.UserHandler.Revenue)
		}
	}

	return router
}
