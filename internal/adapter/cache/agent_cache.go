package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "agent-rating-service/internal/domain/agent"
)

// AgentCache defines the interface for agent caching operations.
type AgentCache interface {
	// Get retrieves an agent from cache by ID.
	// Returns nil if the agent is not found in cache.
	Get(ctx context.Context, id int64) (*domain.Agent, error)

	// Set stores an agent in cache with the configured TTL.
	Set(ctx context.Context, agent *domain.Agent) error

	// Delete removes an agent from cache by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteMultiple removes multiple agents from cache by IDs.
	DeleteMultiple(ctx context.Context, ids ...int64) error
}

// RedisAgentCache implements AgentCache using Redis as the backing store.
type RedisAgentCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisAgentCache creates a new Redis-backed agent cache.
func NewRedisAgentCache(client *redis.Client, ttl time.Duration, log *zap.Logger) AgentCache {
	return &RedisAgentCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// cacheKey generates a Redis key for an agent ID.
func (c *RedisAgentCache) cacheKey(id int64) string {
	return fmt.Sprintf("agent:%d", id)
}

// Get retrieves an agent from Redis cache.
func (c *RedisAgentCache) Get(ctx context.Context, id int64) (*domain.Agent, error) {
	key := c.cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.Int64("agent_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("agent_id", id), zap.Error(err))
		return nil, err
	}

	var agent domain.Agent
	if err := sonic.Unmarshal(data, &agent); err != nil {
		c.log.Error("failed to unmarshal cached agent", zap.Int64("agent_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("agent_id", id))
	return &agent, nil
}

// Set stores an agent in Redis cache with TTL.
func (c *RedisAgentCache) Set(ctx context.Context, agent *domain.Agent) error {
	if agent == nil {
		return fmt.Errorf("cannot cache nil agent")
	}

	key := c.cacheKey(agent.ID)

	data, err := sonic.Marshal(agent)
	if err != nil {
		c.log.Error("failed to marshal agent for cache", zap.Int64("agent_id", agent.ID), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.Int64("agent_id", agent.ID), zap.Error(err))
		return err
	}

	c.log.Debug("cached agent", zap.Int64("agent_id", agent.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes an agent from Redis cache.
func (c *RedisAgentCache) Delete(ctx context.Context, id int64) error {
	key := c.cacheKey(id)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.Int64("agent_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.Int64("agent_id", id))
	return nil
}

// DeleteMultiple removes multiple agents from Redis cache.
func (c *RedisAgentCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.cacheKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("failed to delete multiple from cache", zap.Int("count", len(ids)), zap.Error(err))
		return err
	}

	c.log.Debug("deleted multiple from cache", zap.Int("count", len(ids)))
	return nil
}
