package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wiwihood-backend/internal/shared/middleware"
	"wiwihood-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		setupLoyaltyRoutes(v1, c)
		setupPromotionRoutes(v1, c)
	}

	return router
}

// ========================================
// LOYALTY ROUTES
// ========================================
func setupLoyaltyRoutes(v1 *gin.RouterGroup, c *container.Container) {
	loyalty := v1.Group("/loyalty")
	loyalty.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		loyalty.GET("/account", c.LoyaltyHandler.GetAccount)
		loyalty.GET("/history", c.LoyaltyHandler.GetHistory)
		loyalty.POST("/redeem", c.LoyaltyHandler.RedeemPoints)
		loyalty.GET("/rewards", c.LoyaltyHandler.GetAvailableRewards)
		loyalty.GET("/rewards/eligible", c.LoyaltyHandler.GetEligibleRewards)
	}

	adminLoyalty := v1.Group("/admin/loyalty")
	adminLoyalty.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		adminLoyalty.POST("/points", c.LoyaltyHandler.AdminAddPoints)
		adminLoyalty.POST("/rewards", c.LoyaltyHandler.AdminCreateReward)
		adminLoyalty.PUT("/rewards/:id", c.LoyaltyHandler.AdminUpdateReward)
		adminLoyalty.DELETE("/rewards/:id", c.LoyaltyHandler.AdminDeleteReward)
	}
}

// ========================================
// PROMOTION ROUTES
// ========================================
func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	promotions := v1.Group("/promotions")
	{
		// Validation is open to guests building a checkout preview
		promotions.POST("/validate", c.PromotionHandler.ValidatePromotion)
		promotions.GET("/active", c.PromotionHandler.GetActivePromotions)

		// Recording usage needs an authenticated customer
		promotions.POST("/apply",
			middleware.AuthMiddleware(c.Config.JWT.Secret),
			c.PromotionHandler.ApplyPromotion,
		)
	}

	adminPromotions := v1.Group("/admin/promotions")
	adminPromotions.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		adminPromotions.POST("", c.PromotionAdminHandler.CreatePromotion)
		adminPromotions.GET("", c.PromotionAdminHandler.ListPromotions)
		adminPromotions.GET("/:id", c.PromotionAdminHandler.GetPromotion)
		adminPromotions.PUT("/:id", c.PromotionAdminHandler.UpdatePromotion)
		adminPromotions.DELETE("/:id", c.PromotionAdminHandler.DeletePromotion)
		adminPromotions.GET("/:id/usage", c.PromotionAdminHandler.GetPromotionUsage)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
