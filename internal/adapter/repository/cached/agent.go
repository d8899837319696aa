package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"agent-rating-service/internal/adapter/cache"
	domain "agent-rating-service/internal/domain/agent"
	"agent-rating-service/internal/usecase/agent"
)

// CachedAgentRepository implements agent.Repository with caching support.
// It wraps the persistent repository and keeps a single cache invalidation
// path for agent records.
type CachedAgentRepository struct {
	dbRepo agent.Repository
	cache  cache.AgentCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedAgentRepository creates a new instance of CachedAgentRepository.
func NewCachedAgentRepository(dbRepo agent.Repository, cache cache.AgentCache, log *zap.Logger) agent.Repository {
	return &CachedAgentRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *CachedAgentRepository) Create(ctx context.Context, a *domain.Agent) (int64, error) {
	return r.dbRepo.Create(ctx, a)
}

// GetByID retrieves an agent by ID using the cache-aside pattern. Concurrent
// misses for the same agent collapse into a single database read.
func (r *CachedAgentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	if r.cache != nil {
		cachedAgent, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedAgent != nil {
			r.log.Debug("agent retrieved from cache", zap.Int64("id", id))
			return cachedAgent, nil
		}
	}

	key := fmt.Sprintf("agent:%d", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		// Double-check the cache in case another request populated it
		// while we were waiting.
		if r.cache != nil {
			cachedAgent, err := r.cache.Get(ctx, id)
			if err == nil && cachedAgent != nil {
				r.log.Debug("agent retrieved from cache after single-flight wait", zap.Int64("id", id))
				return cachedAgent, nil
			}
		}

		a, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, a); err != nil {
				r.log.Warn("failed to cache agent", zap.Int64("id", id), zap.Error(err))
			}
		}

		return a, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*domain.Agent), nil
}

// GetByEmail delegates to the DB repository.
func (r *CachedAgentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// Update updates the agent in the DB and invalidates the cache.
func (r *CachedAgentRepository) Update(ctx context.Context, a *domain.Agent) (int64, error) {
	id, err := r.dbRepo.Update(ctx, a)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, a.ID); err != nil {
			r.log.Warn("failed to invalidate cache after update", zap.Int64("id", a.ID), zap.Error(err))
		}
	}

	return id, nil
}

// Delete deletes the agent from the DB and invalidates the cache.
func (r *CachedAgentRepository) Delete(ctx context.Context, id int64) (int64, error) {
	deletedID, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, id); err != nil {
			r.log.Warn("failed to invalidate cache after delete", zap.Int64("id", id), zap.Error(err))
		}
	}

	return deletedID, nil
}

// List delegates to the DB repository.
func (r *CachedAgentRepository) List(ctx context.Context, query string, page, limit int64) ([]domain.Agent, int64, error) {
	return r.dbRepo.List(ctx, query, page, limit)
}
