package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/events"
	"agent-rating-service/internal/adapter/gin/middleware"
	"agent-rating-service/internal/adapter/gin/router"
	"agent-rating-service/internal/config"
	"agent-rating-service/pkg/security"
)

// Server struct holds all server dependencies
type Server struct {
	Config   *config.Config
	Logger   *zap.Logger
	HTTP     *http.Server
	Consumer *events.Consumer
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	handlers router.Handlers,
	tokens *security.TokenManager,
	rateLimiter *middleware.RateLimiter,
	consumer *events.Consumer,
) *Server {
	return &Server{
		Config:   cfg,
		Logger:   l,
		HTTP:     SetupGinServer(handlers, tokens, rateLimiter, ":"+cfg.App.HTTPPort, l),
		Consumer: consumer,
	}
}

// Start runs the event consumer and then the HTTP API. It blocks until the
// context is cancelled or either component fails. The HTTP listener only
// opens once the consumer's handlers are up, so requests never observe a
// service that accepts ratings but does not project them.
func (s *Server) Start(ctx context.Context) error {
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- s.Consumer.Run(ctx)
	}()

	select {
	case <-s.Consumer.Running():
		s.Logger.Info("event consumer running")
	case err := <-consumerErr:
		return fmt.Errorf("event consumer failed to start: %w", err)
	case <-ctx.Done():
		return nil
	}

	httpErr := make(chan error, 1)
	go func() {
		s.Logger.Info("REST API running", zap.String("address", s.HTTP.Addr))
		httpErr <- s.HTTP.ListenAndServe()
	}()

	select {
	case err := <-consumerErr:
		if err != nil {
			return fmt.Errorf("event consumer error: %w", err)
		}
		return nil
	case err := <-httpErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}
}
