package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"agent-rating-service/internal/domain/ranking"
	"agent-rating-service/internal/domain/rating"
	apperrors "agent-rating-service/pkg/errors"
)

// RatingRepoPG implements the rating repository using PostgreSQL and GORM.
type RatingRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewRatingRepoPG creates a new instance of RatingRepoPG.
func NewRatingRepoPG(db *gorm.DB, log *zap.Logger) *RatingRepoPG {
	return &RatingRepoPG{db: db, log: log}
}

// RatingSchema represents the database schema for the ratings table.
type RatingSchema struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`              // Unique identifier with auto-increment
	AgentID     int64     `gorm:"not null;index:idx_ratings_agent_time"` // Rated agent, indexed for window scans
	Score       int       `gorm:"not null"`                              // Customer's 1-5 rating
	Category    string    `gorm:"not null;index"`                        // Support category, indexed for category boards
	Comment     string    // Optional free-form feedback
	CustomerRef string    // Opaque caller-supplied customer identifier
	CreatedAt   time.Time `gorm:"not null;index:idx_ratings_agent_time"` // When the rating was recorded
}

// TableName specifies the table name for the RatingSchema model.
func (RatingSchema) TableName() string {
	return "ratings"
}

func (s RatingSchema) toDomain() *rating.Rating {
	return &rating.Rating{
		ID:          s.ID,
		AgentID:     s.AgentID,
		Score:       s.Score,
		Category:    s.Category,
		Comment:     s.Comment,
		CustomerRef: s.CustomerRef,
		CreatedAt:   s.CreatedAt,
	}
}

// Create inserts a new rating into the database.
func (r *RatingRepoPG) Create(ctx context.Context, ra *rating.Rating) (int64, error) {
	if ra == nil {
		return 0, errors.New("rating cannot be nil")
	}

	model := RatingSchema{
		AgentID:     ra.AgentID,
		Score:       ra.Score,
		Category:    ra.Category,
		Comment:     ra.Comment,
		CustomerRef: ra.CustomerRef,
		CreatedAt:   ra.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create rating in db", zap.Error(err), zap.Int64("agent_id", ra.AgentID))
		return 0, fmt.Errorf("failed to create rating: %w", err)
	}

	r.log.Info("rating created in db", zap.Int64("id", model.ID), zap.Int64("agent_id", ra.AgentID))
	return model.ID, nil
}

// ListByAgent retrieves an agent's ratings with pagination, newest first.
func (r *RatingRepoPG) ListByAgent(ctx context.Context, agentID, page, limit int64) ([]rating.Rating, int64, error) {
	if agentID <= 0 {
		return nil, 0, apperrors.NewValidationError("agent_id", "invalid agent id")
	}

	tx := r.db.WithContext(ctx).Model(&RatingSchema{}).Where("agent_id = ?", agentID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		r.log.Error("failed to count ratings in db", zap.Error(err), zap.Int64("agent_id", agentID))
		return nil, 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	var models []RatingSchema
	if err := tx.Order("created_at DESC, id DESC").Offset(int((page - 1) * limit)).Limit(int(limit)).Find(&models).Error; err != nil {
		r.log.Error("failed to list ratings from db", zap.Error(err), zap.Int64("agent_id", agentID))
		return nil, 0, fmt.Errorf("failed to list ratings: %w", err)
	}

	ratings := make([]rating.Rating, len(models))
	for i, model := range models {
		ratings[i] = *model.toDomain()
	}

	return ratings, total, nil
}

// GetStats aggregates every rating recorded for one agent: total count,
// mean score, per-score distribution and per-category breakdown.
func (r *RatingRepoPG) GetStats(ctx context.Context, agentID int64) (*rating.AgentStats, error) {
	if agentID <= 0 {
		return nil, apperrors.NewValidationError("agent_id", "invalid agent id")
	}

	stats := &rating.AgentStats{
		AgentID:     agentID,
		ScoreCounts: make(map[int]int64),
		Categories:  make(map[string]rating.CategoryStats),
	}

	var overall struct {
		RatingCount  int64
		AverageScore float64
	}
	err := r.db.WithContext(ctx).Model(&RatingSchema{}).
		Select("COUNT(*) AS rating_count, COALESCE(AVG(score), 0) AS average_score").
		Where("agent_id = ?", agentID).
		Scan(&overall).Error
	if err != nil {
		r.log.Error("failed to aggregate agent ratings", zap.Error(err), zap.Int64("agent_id", agentID))
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	stats.RatingCount = overall.RatingCount
	stats.AverageScore = overall.AverageScore

	if stats.RatingCount == 0 {
		return stats, nil
	}

	var scoreRows []struct {
		Score int
		Cnt   int64
	}
	err = r.db.WithContext(ctx).Model(&RatingSchema{}).
		Select("score, COUNT(*) AS cnt").
		Where("agent_id = ?", agentID).
		Group("score").
		Scan(&scoreRows).Error
	if err != nil {
		r.log.Error("failed to aggregate score distribution", zap.Error(err), zap.Int64("agent_id", agentID))
		return nil, fmt.Errorf("failed to aggregate score distribution: %w", err)
	}
	for _, row := range scoreRows {
		stats.ScoreCounts[row.Score] = row.Cnt
	}

	var categoryRows []struct {
		Category     string
		RatingCount  int64
		AverageScore float64
	}
	err = r.db.WithContext(ctx).Model(&RatingSchema{}).
		Select("category, COUNT(*) AS rating_count, AVG(score) AS average_score").
		Where("agent_id = ?", agentID).
		Group("category").
		Scan(&categoryRows).Error
	if err != nil {
		r.log.Error("failed to aggregate category breakdown", zap.Error(err), zap.Int64("agent_id", agentID))
		return nil, fmt.Errorf("failed to aggregate category breakdown: %w", err)
	}
	for _, row := range categoryRows {
		stats.Categories[row.Category] = rating.CategoryStats{
			RatingCount:  row.RatingCount,
			AverageScore: row.AverageScore,
		}
	}

	return stats, nil
}

// AggregateWindow computes the leaderboard source rows for a window straight
// from the ratings table: exact score sum and count per agent, best average
// first. Agents with fewer than minRatings ratings in the window are excluded.
func (r *RatingRepoPG) AggregateWindow(ctx context.Context, w ranking.Window, minRatings int) ([]ranking.Aggregate, error) {
	tx := r.db.WithContext(ctx).Model(&RatingSchema{}).
		Select("agent_id, SUM(score) AS score_sum, COUNT(*) AS cnt")

	if from, to, ok := w.Bounds(); ok {
		tx = tx.Where("created_at >= ? AND created_at < ?", from, to)
	}
	if w.Kind == ranking.KindCategory {
		tx = tx.Where("category = ?", w.Key)
	}

	var rows []struct {
		AgentID  int64
		ScoreSum int64
		Cnt      int64
	}
	err := tx.Group("agent_id").
		Having("COUNT(*) >= ?", minRatings).
		Order("AVG(score) DESC, COUNT(*) DESC, agent_id ASC").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to aggregate leaderboard window", zap.Error(err), zap.String("window", w.String()))
		return nil, fmt.Errorf("failed to aggregate window %s: %w", w, err)
	}

	aggs := make([]ranking.Aggregate, len(rows))
	for i, row := range rows {
		aggs[i] = ranking.Aggregate{
			AgentID:  row.AgentID,
			ScoreSum: row.ScoreSum,
			Count:    row.Cnt,
		}
	}

	return aggs, nil
}

// DeleteByAgent removes every rating recorded for an agent.
// Called when an agent is deleted so rankings can no longer resurrect them.
func (r *RatingRepoPG) DeleteByAgent(ctx context.Context, agentID int64) (int64, error) {
	if agentID <= 0 {
		return 0, apperrors.NewValidationError("agent_id", "invalid agent id")
	}

	result := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Delete(&RatingSchema{})
	if result.Error != nil {
		r.log.Error("failed to delete ratings for agent", zap.Error(result.Error), zap.Int64("agent_id", agentID))
		return 0, fmt.Errorf("failed to delete ratings: %w", result.Error)
	}

	r.log.Info("ratings deleted for agent", zap.Int64("agent_id", agentID), zap.Int64("count", result.RowsAffected))
	return result.RowsAffected, nil
}
