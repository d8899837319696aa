package agent

import (
	"time"

	"agent-rating-service/internal/domain/pagination"
)

// CreateAgentRequest represents the request payload for onboarding an agent.
type CreateAgentRequest struct {
	Name  string `validate:"required,min=3,max=100"`
	Email string `validate:"required,email"`
	Team  string `validate:"omitempty,max=100"`
}

// CreateAgentResponse represents the response payload after creating an agent.
type CreateAgentResponse struct {
	ID int64
}

// UpdateAgentRequest represents the request payload for updating an agent.
// Zero-value fields are left unchanged; Active uses a pointer so that
// deactivation can be told apart from "not provided".
type UpdateAgentRequest struct {
	ID     int64  `validate:"required"`
	Name   string `validate:"omitempty,min=3,max=100"`
	Email  string `validate:"omitempty,email"`
	Team   string `validate:"omitempty,max=100"`
	Active *bool
}

// UpdateAgentResponse represents the response payload after updating an agent.
type UpdateAgentResponse struct {
	ID int64
}

// DeleteAgentRequest represents the request payload for offboarding an agent.
type DeleteAgentRequest struct {
	ID int64
}

// DeleteAgentResponse reports what the offboarding removed.
type DeleteAgentResponse struct {
	ID             int64
	RatingsDeleted int64
}

// GetAgentRequest represents the request payload for retrieving an agent.
type GetAgentRequest struct {
	ID int64
}

// GetAgentResponse represents the response payload for agent details.
type GetAgentResponse struct {
	ID        int64
	Name      string
	Email     string
	Team      string
	Active    bool
	CreatedAt time.Time
}

// ListAgentsRequest represents the request payload for listing agents.
// It supports pagination and search across name, email and team.
type ListAgentsRequest struct {
	Query string
	Page  int64
	Limit int64
}

// ListAgentsResponse represents the response payload for agent listing.
type ListAgentsResponse struct {
	Agents     []Agent
	Pagination *pagination.Pagination
}

// Agent represents an agent DTO for API responses.
type Agent struct {
	ID        int64
	Name      string
	Email     string
	Team      string
	Active    bool
	CreatedAt time.Time
}
