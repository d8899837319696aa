package rating

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/events"
	agentdomain "agent-rating-service/internal/domain/agent"
	"agent-rating-service/internal/domain/pagination"
	domain "agent-rating-service/internal/domain/rating"
	"agent-rating-service/internal/usecase/validate"
	apperrors "agent-rating-service/pkg/errors"
)

// Repository defines the interface for rating data access operations.
type Repository interface {
	Create(ctx context.Context, r *domain.Rating) (int64, error)
	ListByAgent(ctx context.Context, agentID, page, limit int64) ([]domain.Rating, int64, error)
	GetStats(ctx context.Context, agentID int64) (*domain.AgentStats, error)
}

// AgentDirectory resolves agents referenced by incoming ratings. Satisfied
// by the cached agent repository.
type AgentDirectory interface {
	GetByID(ctx context.Context, id int64) (*agentdomain.Agent, error)
}

// Service implements the business logic for rating submission and reads.
type Service struct {
	repo     Repository
	agents   AgentDirectory
	events   events.Publisher
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*Service)(nil)

// New creates a rating Service.
func New(r Repository, agents AgentDirectory, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{repo: r, agents: agents, events: pub, log: log, validate: validator.New()}
}

// SubmitRating validates and persists a rating, then publishes a
// rating.recorded event for the leaderboard projections. The database write
// is the source of truth; a lost event is repaired by the next rebuild.
func (s *Service) SubmitRating(ctx context.Context, in SubmitRatingRequest) (*SubmitRatingResponse, error) {
	s.log.Info("submitting rating",
		zap.Int64("agent_id", in.AgentID), zap.Int("score", in.Score), zap.String("category", in.Category))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validate.FormatError(err)
	}

	a, err := s.agents.GetByID(ctx, in.AgentID)
	if err != nil {
		s.log.Warn("agent lookup failed for rating", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}
	if !a.Active {
		s.log.Warn("rating rejected for inactive agent", zap.Int64("agent_id", in.AgentID))
		return nil, apperrors.NewValidationError("agent_id", "agent is not active")
	}

	now := time.Now().UTC()
	id, err := s.repo.Create(ctx, &domain.Rating{
		AgentID:     in.AgentID,
		Score:       in.Score,
		Category:    in.Category,
		Comment:     in.Comment,
		CustomerRef: in.CustomerRef,
		CreatedAt:   now,
	})
	if err != nil {
		s.log.Error("failed to create rating", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}

	if err := s.events.PublishRatingRecorded(ctx, events.RatingRecorded{
		RatingID:   id,
		AgentID:    in.AgentID,
		Score:      int64(in.Score),
		Category:   in.Category,
		OccurredAt: now,
	}); err != nil {
		s.log.Warn("failed to publish rating.recorded", zap.Int64("rating_id", id), zap.Error(err))
	}

	return &SubmitRatingResponse{
		ID:        id,
		AgentID:   in.AgentID,
		Score:     in.Score,
		Category:  in.Category,
		CreatedAt: now,
	}, nil
}

// ListByAgent retrieves the ratings of one agent, newest first.
func (s *Service) ListByAgent(ctx context.Context, in ListRatingsRequest) (*ListRatingsResponse, error) {
	if in.AgentID <= 0 {
		s.log.Warn("list ratings validation failed", zap.Int64("agent_id", in.AgentID), zap.String("reason", "invalid agent id"))
		return nil, apperrors.NewValidationError("agent_id", "agent_id must be a positive integer")
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 10
	}
	if in.Limit > 100 {
		in.Limit = 100
	}

	if _, err := s.agents.GetByID(ctx, in.AgentID); err != nil {
		s.log.Warn("agent lookup failed for rating list", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}

	domainRatings, total, err := s.repo.ListByAgent(ctx, in.AgentID, in.Page, in.Limit)
	if err != nil {
		s.log.Error("failed to list ratings", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}

	ratings := make([]Rating, len(domainRatings))
	for i, dr := range domainRatings {
		ratings[i] = Rating{
			ID:          dr.ID,
			AgentID:     dr.AgentID,
			Score:       dr.Score,
			Category:    dr.Category,
			Comment:     dr.Comment,
			CustomerRef: dr.CustomerRef,
			CreatedAt:   dr.CreatedAt,
		}
	}

	return &ListRatingsResponse{
		Ratings:    ratings,
		Pagination: pagination.New(total, in.Page, in.Limit),
	}, nil
}

// GetAgentStats returns aggregated rating statistics for one agent.
func (s *Service) GetAgentStats(ctx context.Context, in GetStatsRequest) (*GetStatsResponse, error) {
	if in.AgentID <= 0 {
		s.log.Warn("get stats validation failed", zap.Int64("agent_id", in.AgentID), zap.String("reason", "invalid agent id"))
		return nil, apperrors.NewValidationError("agent_id", "agent_id must be a positive integer")
	}

	if _, err := s.agents.GetByID(ctx, in.AgentID); err != nil {
		s.log.Warn("agent lookup failed for stats", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}

	stats, err := s.repo.GetStats(ctx, in.AgentID)
	if err != nil {
		s.log.Error("failed to get agent stats", zap.Int64("agent_id", in.AgentID), zap.Error(err))
		return nil, err
	}

	categories := make(map[string]CategoryStats, len(stats.Categories))
	for name, cs := range stats.Categories {
		categories[name] = CategoryStats{RatingCount: cs.RatingCount, AverageScore: cs.AverageScore}
	}

	return &GetStatsResponse{
		AgentID:      stats.AgentID,
		RatingCount:  stats.RatingCount,
		AverageScore: stats.AverageScore,
		ScoreCounts:  stats.ScoreCounts,
		Categories:   categories,
	}, nil
}
