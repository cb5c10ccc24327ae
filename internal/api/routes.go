package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizcard/internal/api/middleware"
	"bizcard/internal/auth"
	"bizcard/internal/config"
	"bizcard/internal/storage"
)

// RegisterRoutes wires every handler into the engine.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	cardHandler := NewCardHandler(db, asynqClient, storageClient, 10, cfg.API.PublicBaseURL)
	publicHandler := NewPublicHandler(db, asynqClient, cfg.API.InternalSecret)
	adminHandler := NewAdminHandler(db)
	authHandler := NewAuthHandler(db, authService, redisClient, logger, 10, 5, 15*time.Minute, "")
	wsHandler := NewWsHandler(redisClient, authService, logger, nil)
	assetHandler := NewAssetHandler(db, storageClient, logger, cfg.Clamd.Address, cfg.Clamd.Enabled)

	authMiddleware := middleware.AuthMiddleware(authService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		// Public surface: no auth, published cards only.
		publicGroup := v1.Group("/public")
		{
			publicGroup.GET("/cards/:slug", publicHandler.GetCard)
		}

		cardGroup := v1.Group("/cards")
		cardGroup.Use(authMiddleware, passwordGate)
		{
			cardGroup.POST("", cardHandler.CreateCard)
			cardGroup.GET("", cardHandler.ListCards)
			cardGroup.GET("/:id", cardHandler.GetCard)
			cardGroup.PUT("/:id", cardHandler.UpdateCard)
			cardGroup.DELETE("/:id", cardHandler.DeleteCard)
			cardGroup.PUT("/:id/publish", cardHandler.SetPublished)
			cardGroup.POST("/:id/duplicate", cardHandler.DuplicateCard)

			cardGroup.PUT("/:id/social-links", cardHandler.UpdateSocialLinks)
			cardGroup.PUT("/:id/media", cardHandler.UpdateMediaItems)
			cardGroup.PUT("/:id/products", cardHandler.UpdateProducts)
			cardGroup.PUT("/:id/reviews", cardHandler.UpdateReviewLinks)

			cardGroup.POST("/:id/snapshot", cardHandler.RequestSnapshot)
			cardGroup.GET("/:id/snapshot-link", cardHandler.GetSnapshotLink)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware, passwordGate)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeleteAsset)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, passwordGate, middleware.RequireAdminMiddleware())
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/export", adminHandler.ExportUsersCSV)
			adminGroup.GET("/cards", adminHandler.ListCards)
			adminGroup.DELETE("/cards/:id", adminHandler.DeleteCard)
			adminGroup.PUT("/cards/:id/publish", adminHandler.SetCardPublished)
			adminGroup.GET("/cards/:id/analytics", adminHandler.GetCardAnalytics)
			adminGroup.GET("/cards/export", adminHandler.ExportCardsCSV)
			adminGroup.GET("/stats", adminHandler.GetStats)
		}
	}

	// The render page lives outside /v1: the worker builds this URL and the
	// query token is checked inside the handler itself, because headless
	// Chrome cannot send custom headers. The JSON variant is header-guarded.
	router.GET("/internal/cards/:id/render", publicHandler.RenderCard)
	router.GET("/internal/cards/:id",
		middleware.InternalSecretMiddleware(cfg.API.InternalSecret),
		publicHandler.GetCardInternal)
}
