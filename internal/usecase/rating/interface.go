package rating

import "context"

// Usecase defines the interface for rating operations.
type Usecase interface {
	SubmitRating(ctx context.Context, in SubmitRatingRequest) (*SubmitRatingResponse, error)
	ListByAgent(ctx context.Context, in ListRatingsRequest) (*ListRatingsResponse, error)
	GetAgentStats(ctx context.Context, in GetStatsRequest) (*GetStatsResponse, error)
}
