package rating

import (
	"time"

	"agent-rating-service/internal/domain/pagination"
)

// SubmitRatingRequest represents the request payload for submitting a rating.
type SubmitRatingRequest struct {
	AgentID     int64  `validate:"required,gt=0"`
	Score       int    `validate:"required,min=1,max=5"`
	Category    string `validate:"required,oneof=billing technical account general"`
	Comment     string `validate:"omitempty,max=500"`
	CustomerRef string `validate:"omitempty,max=100"`
}

// SubmitRatingResponse represents the response payload after recording a rating.
type SubmitRatingResponse struct {
	ID        int64
	AgentID   int64
	Score     int
	Category  string
	CreatedAt time.Time
}

// ListRatingsRequest represents the request payload for listing the ratings
// of an agent, newest first.
type ListRatingsRequest struct {
	AgentID int64
	Page    int64
	Limit   int64
}

// ListRatingsResponse represents the response payload for rating listing.
type ListRatingsResponse struct {
	Ratings    []Rating
	Pagination *pagination.Pagination
}

// Rating represents a rating DTO for API responses.
type Rating struct {
	ID          int64
	AgentID     int64
	Score       int
	Category    string
	Comment     string
	CustomerRef string
	CreatedAt   time.Time
}

// GetStatsRequest represents the request payload for agent statistics.
type GetStatsRequest struct {
	AgentID int64
}

// CategoryStats summarizes ratings within one category.
type CategoryStats struct {
	RatingCount  int64
	AverageScore float64
}

// GetStatsResponse represents the aggregated rating statistics of an agent.
type GetStatsResponse struct {
	AgentID      int64
	RatingCount  int64
	AverageScore float64
	ScoreCounts  map[int]int64
	Categories   map[string]CategoryStats
}
