package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"agent-rating-service/internal/domain/ranking"
	"agent-rating-service/internal/domain/rating"
)

func seedRating(t *testing.T, repo *RatingRepoPG, agentID int64, score int, category string, at time.Time) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &rating.Rating{
		AgentID:   agentID,
		Score:     score,
		Category:  category,
		CreatedAt: at,
	})
	require.NoError(t, err)
	return id
}

func TestRatingRepoPG_CreateAndListByAgent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 1, 3, rating.CategoryTechnical, base.Add(time.Hour))
	seedRating(t, repo, 2, 4, rating.CategoryGeneral, base)

	ratings, total, err := repo.ListByAgent(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, ratings, 2)

	// Newest first
	assert.Equal(t, 3, ratings[0].Score)
	assert.Equal(t, 5, ratings[1].Score)

	t.Run("pagination", func(t *testing.T) {
		page2, total, err := repo.ListByAgent(ctx, 1, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, page2, 1)
		assert.Equal(t, 5, page2[0].Score)
	})

	t.Run("agent with no ratings", func(t *testing.T) {
		ratings, total, err := repo.ListByAgent(ctx, 99, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, ratings)
	})
}

func TestRatingRepoPG_GetStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 1, 4, rating.CategoryBilling, base.Add(time.Minute))
	seedRating(t, repo, 1, 4, rating.CategoryTechnical, base.Add(2*time.Minute))
	seedRating(t, repo, 1, 3, rating.CategoryGeneral, base.Add(3*time.Minute))
	// Other agent's rating must not leak into agent 1's stats.
	seedRating(t, repo, 2, 1, rating.CategoryBilling, base)

	stats, err := repo.GetStats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.AgentID)
	assert.Equal(t, int64(4), stats.RatingCount)
	assert.InDelta(t, 4.0, stats.AverageScore, 0.0001)

	assert.Equal(t, int64(1), stats.ScoreCounts[5])
	assert.Equal(t, int64(2), stats.ScoreCounts[4])
	assert.Equal(t, int64(1), stats.ScoreCounts[3])

	billing := stats.Categories[rating.CategoryBilling]
	assert.Equal(t, int64(2), billing.RatingCount)
	assert.InDelta(t, 4.5, billing.AverageScore, 0.0001)

	technical := stats.Categories[rating.CategoryTechnical]
	assert.Equal(t, int64(1), technical.RatingCount)
	assert.InDelta(t, 4.0, technical.AverageScore, 0.0001)
}

func TestRatingRepoPG_GetStats_NoRatings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))

	stats, err := repo.GetStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.RatingCount)
	assert.Equal(t, 0.0, stats.AverageScore)
	assert.Empty(t, stats.ScoreCounts)
	assert.Empty(t, stats.Categories)
}

func TestRatingRepoPG_AggregateWindow_Overall(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base.Add(time.Minute))
	seedRating(t, repo, 2, 3, rating.CategoryBilling, base)
	seedRating(t, repo, 2, 4, rating.CategoryTechnical, base.Add(time.Minute))
	seedRating(t, repo, 3, 4, rating.CategoryGeneral, base)

	aggs, err := repo.AggregateWindow(ctx, ranking.Overall(), 1)
	require.NoError(t, err)
	require.Len(t, aggs, 3)

	// Best average first.
	assert.Equal(t, int64(1), aggs[0].AgentID)
	assert.Equal(t, int64(10), aggs[0].ScoreSum)
	assert.Equal(t, int64(2), aggs[0].Count)
	assert.InDelta(t, 5.0, aggs[0].Average(), 0.0001)

	assert.Equal(t, int64(3), aggs[1].AgentID)
	assert.Equal(t, int64(2), aggs[2].AgentID)
	assert.Equal(t, int64(7), aggs[2].ScoreSum)
	assert.InDelta(t, 3.5, aggs[2].Average(), 0.0001)
}

func TestRatingRepoPG_AggregateWindow_TieBreak(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	// Agents 1, 2 and 3 all average 4.0; agent 2 has more ratings.
	seedRating(t, repo, 1, 4, rating.CategoryBilling, base)
	seedRating(t, repo, 2, 4, rating.CategoryBilling, base)
	seedRating(t, repo, 2, 4, rating.CategoryBilling, base.Add(time.Minute))
	seedRating(t, repo, 3, 4, rating.CategoryBilling, base)

	aggs, err := repo.AggregateWindow(ctx, ranking.Overall(), 1)
	require.NoError(t, err)
	require.Len(t, aggs, 3)

	// More ratings win an average tie; equal counts order by agent id.
	assert.Equal(t, int64(2), aggs[0].AgentID)
	assert.Equal(t, int64(1), aggs[1].AgentID)
	assert.Equal(t, int64(3), aggs[2].AgentID)
}

func TestRatingRepoPG_AggregateWindow_MinRatings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 2, 4, rating.CategoryBilling, base)
	seedRating(t, repo, 2, 4, rating.CategoryBilling, base.Add(time.Minute))

	aggs, err := repo.AggregateWindow(ctx, ranking.Overall(), 2)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(2), aggs[0].AgentID)
}

func TestRatingRepoPG_AggregateWindow_Week(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	inside := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)  // ISO week 2026-W35
	before := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)  // week 34
	after := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)    // week 36 starts Aug 31

	seedRating(t, repo, 1, 5, rating.CategoryBilling, inside)
	seedRating(t, repo, 1, 1, rating.CategoryBilling, before)
	seedRating(t, repo, 2, 2, rating.CategoryBilling, after)

	w, err := ranking.ParseWeek("2026-W35")
	require.NoError(t, err)

	aggs, err := repo.AggregateWindow(ctx, w, 1)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(1), aggs[0].AgentID)
	assert.Equal(t, int64(5), aggs[0].ScoreSum)
	assert.Equal(t, int64(1), aggs[0].Count)
}

func TestRatingRepoPG_AggregateWindow_Month(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	seedRating(t, repo, 1, 5, rating.CategoryBilling, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	seedRating(t, repo, 1, 3, rating.CategoryBilling, time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC))

	w, err := ranking.ParseMonth("2026-08")
	require.NoError(t, err)

	aggs, err := repo.AggregateWindow(ctx, w, 1)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.InDelta(t, 5.0, aggs[0].Average(), 0.0001)
}

func TestRatingRepoPG_AggregateWindow_Category(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 1, 2, rating.CategoryTechnical, base)
	seedRating(t, repo, 2, 4, rating.CategoryBilling, base)

	aggs, err := repo.AggregateWindow(ctx, ranking.Category(rating.CategoryBilling), 1)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, int64(1), aggs[0].AgentID)
	assert.InDelta(t, 5.0, aggs[0].Average(), 0.0001)
	assert.Equal(t, int64(2), aggs[1].AgentID)
}

func TestRatingRepoPG_DeleteByAgent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	seedRating(t, repo, 1, 5, rating.CategoryBilling, base)
	seedRating(t, repo, 1, 4, rating.CategoryBilling, base.Add(time.Minute))
	seedRating(t, repo, 2, 3, rating.CategoryBilling, base)

	deleted, err := repo.DeleteByAgent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, total, err := repo.ListByAgent(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	// Other agent untouched
	_, total, err = repo.ListByAgent(ctx, 2, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
