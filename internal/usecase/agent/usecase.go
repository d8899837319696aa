package agent

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/events"
	domain "agent-rating-service/internal/domain/agent"
	"agent-rating-service/internal/domain/pagination"
	"agent-rating-service/internal/usecase/validate"
	apperrors "agent-rating-service/pkg/errors"
)

// Repository defines the interface for agent data access operations.
// The wired implementation is the cached decorator around the PostgreSQL
// repository, so GetByID served here may come from Redis.
type Repository interface {
	Create(ctx context.Context, a *domain.Agent) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	Update(ctx context.Context, a *domain.Agent) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, query string, page, limit int64) ([]domain.Agent, int64, error)
}

// RatingPurger removes all ratings belonging to an agent. Satisfied by the
// rating repository.
type RatingPurger interface {
	DeleteByAgent(ctx context.Context, agentID int64) (int64, error)
}

// Service implements the business logic for agent management.
type Service struct {
	repo     Repository
	ratings  RatingPurger
	events   events.Publisher
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*Service)(nil)

// New creates an agent Service.
func New(r Repository, ratings RatingPurger, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{repo: r, ratings: ratings, events: pub, log: log, validate: validator.New()}
}

// CreateAgent creates a new agent after validating the request and checking
// email uniqueness. New agents start active.
func (s *Service) CreateAgent(ctx context.Context, in CreateAgentRequest) (*CreateAgentResponse, error) {
	s.log.Info("creating agent", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validate.FormatError(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("email already exists", zap.String("email", in.Email))
		return nil, apperrors.NewAlreadyExistsError("agent", "email already exists")
	}

	id, err := s.repo.Create(ctx, &domain.Agent{
		Name:   in.Name,
		Email:  in.Email,
		Team:   in.Team,
		Active: true,
	})
	if err != nil {
		s.log.Error("failed to create agent", zap.Error(err))
		return nil, err
	}
	return &CreateAgentResponse{ID: id}, nil
}

// UpdateAgent applies the provided fields to an existing agent. The current
// record is loaded first so omitted fields keep their values.
func (s *Service) UpdateAgent(ctx context.Context, in UpdateAgentRequest) (*UpdateAgentResponse, error) {
	s.log.Info("updating agent", zap.Int64("id", in.ID))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validate.FormatError(err)
	}

	current, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		s.log.Warn("agent not found for update", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	if in.Email != "" && in.Email != current.Email {
		existing, err := s.repo.GetByEmail(ctx, in.Email)
		if err != nil {
			s.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if existing != nil && existing.ID != in.ID {
			s.log.Warn("email already exists", zap.String("email", in.Email), zap.Int64("existing_id", existing.ID))
			return nil, apperrors.NewAlreadyExistsError("agent", "email already exists")
		}
		current.Email = in.Email
	}
	if in.Name != "" {
		current.Name = in.Name
	}
	if in.Team != "" {
		current.Team = in.Team
	}
	if in.Active != nil {
		current.Active = *in.Active
	}

	id, err := s.repo.Update(ctx, current)
	if err != nil {
		s.log.Error("failed to update agent", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &UpdateAgentResponse{ID: id}, nil
}

// DeleteAgent removes an agent, purges its ratings and publishes an
// agent.removed event so leaderboard projections drop it.
func (s *Service) DeleteAgent(ctx context.Context, in DeleteAgentRequest) (*DeleteAgentResponse, error) {
	s.log.Info("deleting agent", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		s.log.Warn("delete agent validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", "id must be a positive integer")
	}

	id, err := s.repo.Delete(ctx, in.ID)
	if err != nil {
		s.log.Error("failed to delete agent", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	purged, err := s.ratings.DeleteByAgent(ctx, in.ID)
	if err != nil {
		s.log.Error("failed to purge ratings for deleted agent", zap.Int64("id", in.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("agent removed but rating purge failed", err)
	}

	// Leaderboards converge on the next rebuild if this publish is lost.
	if err := s.events.PublishAgentRemoved(ctx, events.AgentRemoved{
		AgentID:   in.ID,
		RemovedAt: time.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to publish agent.removed", zap.Int64("id", in.ID), zap.Error(err))
	}

	return &DeleteAgentResponse{ID: id, RatingsDeleted: purged}, nil
}

// GetAgent retrieves an agent by ID.
func (s *Service) GetAgent(ctx context.Context, in GetAgentRequest) (*GetAgentResponse, error) {
	if in.ID <= 0 {
		s.log.Warn("get agent validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", "id must be a positive integer")
	}

	a, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		s.log.Warn("failed to get agent", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &GetAgentResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Team:      a.Team,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
	}, nil
}

// ListAgents retrieves a paginated list of agents with optional search.
func (s *Service) ListAgents(ctx context.Context, in ListAgentsRequest) (*ListAgentsResponse, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 10
	}
	if in.Limit > 100 {
		in.Limit = 100
	}

	s.log.Info("listing agents", zap.String("query", in.Query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	domainAgents, total, err := s.repo.List(ctx, in.Query, in.Page, in.Limit)
	if err != nil {
		s.log.Warn("failed to list agents", zap.String("query", in.Query), zap.Error(err))
		return nil, err
	}

	agents := make([]Agent, len(domainAgents))
	for i, da := range domainAgents {
		agents[i] = Agent{
			ID:        da.ID,
			Name:      da.Name,
			Email:     da.Email,
			Team:      da.Team,
			Active:    da.Active,
			CreatedAt: da.CreatedAt,
		}
	}

	return &ListAgentsResponse{
		Agents:     agents,
		Pagination: pagination.New(total, in.Page, in.Limit),
	}, nil
}
