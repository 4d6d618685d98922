package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beacon-tracker/internal/config"
	"beacon-tracker/internal/delivery/http/handler"
	domainDevice "beacon-tracker/internal/domain/device"
	domainUser "beacon-tracker/internal/domain/user"
	"beacon-tracker/internal/logger"
	"beacon-tracker/internal/middleware"
	"beacon-tracker/internal/realtime"
	"beacon-tracker/internal/usecase/device"
	"beacon-tracker/internal/usecase/user"
)

// Health is the liveness probe dependency.
type Health interface {
	Health() error
}

// SetupRoutes wires repositories, services and handlers into a gin engine.
// deviceRepo is expected to be hub-notifying so every write reaches /stream
// subscribers.
func SetupRoutes(cfg *config.Config, health Health, deviceRepo domainDevice.Repository, userRepo domainUser.Repository, hub *realtime.Hub) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	if cfg.RateLimit.GeneralRPS > 0 {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Database connection failed",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userService := user.NewService(userRepo, cfg)
	userHandler := handler.NewUserHandler(userService)

	deviceService := device.NewService(deviceRepo)
	deviceHandler := handler.NewDeviceHandler(deviceService)

	streamHandler := realtime.NewStreamHandler(hub, nil)

	v1 := router.Group("/api/v1")
	{
		userHandler.RegisterRoutes(v1)
		deviceHandler.RegisterRoutes(v1)
		streamHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			deviceHandler.RegisterProtectedRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router
}
