package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/gin/middleware"
	ginrouter "agent-rating-service/internal/adapter/gin/router"
	"agent-rating-service/pkg/security"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handlers ginrouter.Handlers,
	tokens *security.TokenManager,
	rateLimiter *middleware.RateLimiter,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handlers, tokens, rateLimiter, l)

	l.Info("REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
