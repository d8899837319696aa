package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/gin/handler"
	"agent-rating-service/internal/adapter/gin/middleware"
	"agent-rating-service/internal/domain/account"
	"agent-rating-service/pkg/security"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Agents   *handler.AgentHandler
	Ratings  *handler.RatingHandler
	Rankings *handler.RankingHandler
	Auth     *handler.AuthHandler
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	h Handlers,
	tokens *security.TokenManager,
	rateLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())
	router.Use(rateLimiter.Handler())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "agent-rating-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.Auth(tokens, log)
	requireAdmin := middleware.RequireRole(account.RoleAdmin)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			// Register runs with optional auth so an admin token can
			// authorize creating another admin account.
			authRoutes.POST("/register", middleware.OptionalAuth(tokens, log), h.Auth.Register)
			authRoutes.POST("/login", h.Auth.Login)
		}

		agents := api.Group("/agents")
		{
			agents.GET("", h.Agents.ListAgents)
			agents.GET("/:id", h.Agents.GetAgent)
			agents.GET("/:id/stats", h.Ratings.GetAgentStats)
			agents.GET("/:id/ratings", h.Ratings.ListAgentRatings)

			adminAgents := agents.Group("", requireAuth, requireAdmin)
			{
				adminAgents.POST("", h.Agents.CreateAgent)
				adminAgents.PUT("/:id", h.Agents.UpdateAgent)
				adminAgents.DELETE("/:id", h.Agents.DeleteAgent)
			}
		}

		ratings := api.Group("/ratings", requireAuth)
		{
			ratings.POST("", h.Ratings.SubmitRating)
		}

		rankings := api.Group("/rankings")
		{
			rankings.GET("/overall", h.Rankings.Overall)
			rankings.GET("/weekly", h.Rankings.Weekly)
			rankings.GET("/monthly", h.Rankings.Monthly)
			rankings.GET("/categories/:category", h.Rankings.ByCategory)
			rankings.POST("/rebuild", requireAuth, requireAdmin, h.Rankings.Rebuild)
		}
	}

	return router
}
