package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agent-rating-service/internal/domain/ranking"
)

// Leaderboard defines the interface for leaderboard cache operations.
// Implementations keep one board per window, ordered by running average.
type Leaderboard interface {
	// Record folds one score into a window's board and returns the
	// agent's new running average in that window.
	Record(ctx context.Context, w ranking.Window, agentID int64, score int) (float64, error)

	// Top returns up to limit entries, best average first, skipping
	// agents with fewer than minRatings ratings in the window.
	Top(ctx context.Context, w ranking.Window, limit, minRatings int) ([]ranking.Entry, error)

	// Exists reports whether the window's board is present in cache.
	Exists(ctx context.Context, w ranking.Window) (bool, error)

	// Rebuild atomically replaces a window's board with the given rows.
	Rebuild(ctx context.Context, w ranking.Window, aggs []ranking.Aggregate) error

	// RemoveAgent drops an agent from every board.
	RemoveAgent(ctx context.Context, agentID int64) error
}

const leaderboardPrefix = "leaderboard:"

// recordScript folds a score into a window atomically: it bumps the
// agent's sum and count hashes, recomputes the running average and
// writes it to the sorted set, all in one Redis round trip.
//
// KEYS[1] sorted set, KEYS[2] sums hash, KEYS[3] counts hash
// ARGV[1] agent id, ARGV[2] score, ARGV[3] ttl seconds (0 = no expiry)
const recordScript = `
local sum = redis.call('HINCRBYFLOAT', KEYS[2], ARGV[1], ARGV[2])
local cnt = redis.call('HINCRBY', KEYS[3], ARGV[1], 1)
local avg = sum / cnt
redis.call('ZADD', KEYS[1], avg, ARGV[1])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('EXPIRE', KEYS[1], ttl)
	redis.call('EXPIRE', KEYS[2], ttl)
	redis.call('EXPIRE', KEYS[3], ttl)
end
return tostring(avg)
`

// RedisLeaderboard implements Leaderboard on Redis sorted sets.
// Each window keeps three keys: a sorted set of running averages and
// two hashes holding the exact score sums and counts behind them.
type RedisLeaderboard struct {
	client    *redis.Client
	windowTTL time.Duration // expiry for week and month boards
	log       *zap.Logger
}

// NewRedisLeaderboard creates a Redis-backed leaderboard.
// windowTTL bounds how long dated boards (week, month) are retained;
// the overall and category boards never expire.
func NewRedisLeaderboard(client *redis.Client, windowTTL time.Duration, log *zap.Logger) Leaderboard {
	return &RedisLeaderboard{
		client:    client,
		windowTTL: windowTTL,
		log:       log,
	}
}

func (l *RedisLeaderboard) key(w ranking.Window) string {
	return leaderboardPrefix + w.String()
}

func (l *RedisLeaderboard) sumsKey(w ranking.Window) string {
	return l.key(w) + ":sums"
}

func (l *RedisLeaderboard) countsKey(w ranking.Window) string {
	return l.key(w) + ":counts"
}

// ttlFor returns the expiry for a window's keys. Only dated windows expire.
func (l *RedisLeaderboard) ttlFor(w ranking.Window) time.Duration {
	if w.Kind == ranking.KindWeek || w.Kind == ranking.KindMonth {
		return l.windowTTL
	}
	return 0
}

// Record folds one score into a window's board.
func (l *RedisLeaderboard) Record(ctx context.Context, w ranking.Window, agentID int64, score int) (float64, error) {
	keys := []string{l.key(w), l.sumsKey(w), l.countsKey(w)}
	ttlSeconds := int64(l.ttlFor(w) / time.Second)

	raw, err := l.client.Eval(ctx, recordScript, keys,
		strconv.FormatInt(agentID, 10), score, ttlSeconds).Text()
	if err != nil {
		l.log.Error("failed to record score in leaderboard",
			zap.String("window", w.String()), zap.Int64("agent_id", agentID), zap.Error(err))
		return 0, fmt.Errorf("failed to record score in window %s: %w", w, err)
	}

	avg, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected average %q from leaderboard script: %w", raw, err)
	}

	l.log.Debug("score recorded in leaderboard",
		zap.String("window", w.String()), zap.Int64("agent_id", agentID), zap.Float64("average", avg))
	return avg, nil
}

// Top returns the best entries of a window's board.
func (l *RedisLeaderboard) Top(ctx context.Context, w ranking.Window, limit, minRatings int) ([]ranking.Entry, error) {
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key(w), 0, -1).Result()
	if err != nil {
		l.log.Error("failed to read leaderboard", zap.String("window", w.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to read window %s: %w", w, err)
	}
	if len(zs) == 0 {
		return []ranking.Entry{}, nil
	}

	members := make([]string, len(zs))
	for i, z := range zs {
		members[i] = z.Member.(string)
	}

	counts, err := l.client.HMGet(ctx, l.countsKey(w), members...).Result()
	if err != nil {
		l.log.Error("failed to read leaderboard counts", zap.String("window", w.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to read counts for window %s: %w", w, err)
	}

	entries := make([]ranking.Entry, 0, limit)
	for i, z := range zs {
		var cnt int64
		if raw, ok := counts[i].(string); ok {
			cnt, _ = strconv.ParseInt(raw, 10, 64)
		}
		if cnt < int64(minRatings) {
			continue
		}

		agentID, err := strconv.ParseInt(members[i], 10, 64)
		if err != nil {
			l.log.Warn("skipping malformed leaderboard member",
				zap.String("window", w.String()), zap.String("member", members[i]))
			continue
		}

		entries = append(entries, ranking.Entry{
			Rank:         int64(len(entries) + 1),
			AgentID:      agentID,
			AverageScore: z.Score,
			RatingCount:  cnt,
		})
		if len(entries) >= limit {
			break
		}
	}

	return entries, nil
}

// Exists reports whether the window's board is present.
func (l *RedisLeaderboard) Exists(ctx context.Context, w ranking.Window) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(w)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check window %s: %w", w, err)
	}
	return n > 0, nil
}

// Rebuild atomically replaces a window's board with rows aggregated
// from storage. Used on cache miss and by the admin rebuild endpoint.
func (l *RedisLeaderboard) Rebuild(ctx context.Context, w ranking.Window, aggs []ranking.Aggregate) error {
	key, sums, counts := l.key(w), l.sumsKey(w), l.countsKey(w)

	pipe := l.client.TxPipeline()
	pipe.Del(ctx, key, sums, counts)

	if len(aggs) > 0 {
		zs := make([]redis.Z, len(aggs))
		sumPairs := make([]interface{}, 0, len(aggs)*2)
		countPairs := make([]interface{}, 0, len(aggs)*2)
		for i, a := range aggs {
			member := strconv.FormatInt(a.AgentID, 10)
			zs[i] = redis.Z{Score: a.Average(), Member: member}
			sumPairs = append(sumPairs, member, strconv.FormatInt(a.ScoreSum, 10))
			countPairs = append(countPairs, member, strconv.FormatInt(a.Count, 10))
		}
		pipe.ZAdd(ctx, key, zs...)
		pipe.HSet(ctx, sums, sumPairs...)
		pipe.HSet(ctx, counts, countPairs...)

		if ttl := l.ttlFor(w); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
			pipe.Expire(ctx, sums, ttl)
			pipe.Expire(ctx, counts, ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("failed to rebuild leaderboard", zap.String("window", w.String()), zap.Error(err))
		return fmt.Errorf("failed to rebuild window %s: %w", w, err)
	}

	l.log.Info("leaderboard rebuilt", zap.String("window", w.String()), zap.Int("agents", len(aggs)))
	return nil
}

// RemoveAgent drops an agent from every board so deleted agents stop
// appearing in rankings immediately.
func (l *RedisLeaderboard) RemoveAgent(ctx context.Context, agentID int64) error {
	member := strconv.FormatInt(agentID, 10)

	iter := l.client.Scan(ctx, 0, leaderboardPrefix+"*", 100).Iterator()
	pipe := l.client.Pipeline()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, ":sums") || strings.HasSuffix(key, ":counts") {
			pipe.HDel(ctx, key, member)
			continue
		}
		pipe.ZRem(ctx, key, member)
	}
	if err := iter.Err(); err != nil {
		l.log.Error("failed to scan leaderboard keys", zap.Int64("agent_id", agentID), zap.Error(err))
		return fmt.Errorf("failed to scan leaderboards: %w", err)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("failed to remove agent from leaderboards", zap.Int64("agent_id", agentID), zap.Error(err))
		return fmt.Errorf("failed to remove agent %d from leaderboards: %w", agentID, err)
	}

	l.log.Info("agent removed from leaderboards", zap.Int64("agent_id", agentID))
	return nil
}
