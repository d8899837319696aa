package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"agent-rating-service/cmd/api/infrastructure"
	"agent-rating-service/internal/adapter/cache"
	"agent-rating-service/internal/adapter/db/postgres"
	ginhandler "agent-rating-service/internal/adapter/gin/handler"
	"agent-rating-service/internal/adapter/gin/middleware"
	"agent-rating-service/internal/adapter/gin/router"
	"agent-rating-service/internal/adapter/repository/cached"
	"agent-rating-service/internal/config"
	"agent-rating-service/internal/usecase/agent"
	"agent-rating-service/internal/usecase/auth"
	"agent-rating-service/internal/usecase/ranking"
	"agent-rating-service/internal/usecase/rating"
	redisclient "agent-rating-service/pkg/redis"
	"agent-rating-service/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Events      *infrastructure.EventPipeline
	Tokens      *security.TokenManager
	AgentUC     agent.Usecase
	RatingUC    rating.Usecase
	RankingUC   ranking.Usecase
	AuthUC      auth.Usecase
	RateLimiter *middleware.RateLimiter
	Handlers    router.Handlers
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis client
	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize cache layer
	agentCache := cache.NewRedisAgentCache(
		rdb.Client,
		time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second,
		l,
	)
	leaderboard := cache.NewRedisLeaderboard(
		rdb.Client,
		time.Duration(cfg.Ranking.WindowTTLDays)*24*time.Hour,
		l,
	)

	// Initialize repositories
	agentRepo := cached.NewCachedAgentRepository(postgres.NewAgentRepoPG(db, l), agentCache, l)
	ratingRepo := postgres.NewRatingRepoPG(db, l)
	accountRepo := postgres.NewAccountRepoPG(db, l)

	// Initialize ranking use case first: the event consumer projects into it
	rankingUC := ranking.New(leaderboard, ratingRepo, cfg.Ranking.MinRatings, cfg.Ranking.DefaultLimit, l)

	// Initialize the event pipeline (transport, publisher, projection consumer)
	pipeline, err := infrastructure.NewEventPipeline(cfg, rankingUC, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event pipeline: %w", err)
	}

	// Initialize remaining use cases
	agentUC := agent.New(agentRepo, ratingRepo, pipeline.Publisher, l)
	ratingUC := rating.New(ratingRepo, agentRepo, pipeline.Publisher, l)

	tokens := security.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Logger.ServiceName,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	authUC := auth.New(accountRepo, tokens, cfg.Auth.BcryptCost, l)

	// Seed the admin account when configured
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := authUC.SeedAdmin(seedCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(rdb.Client, cfg.RateLimit, l)

	// Initialize Gin handlers
	handlers := router.Handlers{
		Agents:   ginhandler.NewAgentHandler(agentUC, l),
		Ratings:  ginhandler.NewRatingHandler(ratingUC, l),
		Rankings: ginhandler.NewRankingHandler(rankingUC, l),
		Auth:     ginhandler.NewAuthHandler(authUC, l),
	}

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		Events:      pipeline,
		Tokens:      tokens,
		AgentUC:     agentUC,
		RatingUC:    ratingUC,
		RankingUC:   rankingUC,
		AuthUC:      authUC,
		RateLimiter: rateLimiter,
		Handlers:    handlers,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Stop the event pipeline before its backing connections
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event pipeline: %w", err))
		}
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
