// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/loopmarket/marketplace-backend/internal/cache"
	"github.com/loopmarket/marketplace-backend/internal/config"
	"github.com/loopmarket/marketplace-backend/internal/handlers"
	"github.com/loopmarket/marketplace-backend/internal/i18n"
	"github.com/loopmarket/marketplace-backend/internal/middleware"
	"github.com/loopmarket/marketplace-backend/internal/services"
)

func Initialize(db *gorm.DB, cacheClient *cache.Client, cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Initialize services
	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db, cacheClient)
	notificationService := services.NewNotificationService(db, productService)
	storageService := services.NewStorageService(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"languages": i18n.SupportedLanguages(),
		})
	})

	// Serve locally stored uploads when S3 is not configured
	r.Static("/uploads", cfg.Upload.LocalDir)

	v1 := r.Group("/api/v1")
	{
		// Authentication
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/profile", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/search", productHandler.SearchProducts)
			products.GET("/mine", middleware.AuthRequired(), productHandler.GetMyProducts)
			products.GET("/history", middleware.AuthRequired(), productHandler.GetMyHistory)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", middleware.AuthRequired(), productHandler.CreateListing)
			products.POST("/image", middleware.AuthRequired(), middleware.UploadRateLimit(), productHandler.UploadImage)
			products.PUT("/:id", middleware.AuthRequired(), productHandler.UpdateProduct)
			products.DELETE("/:id", middleware.AuthRequired(), productHandler.DeleteProduct)
			products.POST("/:id/request", middleware.AuthRequired(), notificationHandler.SubmitRequest)
		}

		// Notifications
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/pending", notificationHandler.ListPending)
			notifications.GET("/:id", notificationHandler.GetNotification)
			notifications.POST("/:id/decide", notificationHandler.Decide)
		}
	}

	return r
}
