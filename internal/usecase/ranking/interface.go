package ranking

import (
	"context"
	"time"
)

// Usecase defines the interface for leaderboard read and rebuild operations.
type Usecase interface {
	Overall(ctx context.Context, in OverallRequest) (*TopResponse, error)
	Weekly(ctx context.Context, in WeeklyRequest) (*TopResponse, error)
	Monthly(ctx context.Context, in MonthlyRequest) (*TopResponse, error)
	ByCategory(ctx context.Context, in CategoryRequest) (*TopResponse, error)
	Rebuild(ctx context.Context) (*RebuildResponse, error)
}

// Projector is the slice of the ranking service driven by the event
// consumers rather than by HTTP handlers.
type Projector interface {
	ApplyRating(ctx context.Context, agentID int64, score int, category string, occurredAt time.Time) error
	RemoveAgent(ctx context.Context, agentID int64) error
}
