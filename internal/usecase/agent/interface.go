package agent

import "context"

// Usecase defines the interface for agent management operations.
type Usecase interface {
	CreateAgent(ctx context.Context, in CreateAgentRequest) (*CreateAgentResponse, error)
	UpdateAgent(ctx context.Context, in UpdateAgentRequest) (*UpdateAgentResponse, error)
	DeleteAgent(ctx context.Context, in DeleteAgentRequest) (*DeleteAgentResponse, error)
	GetAgent(ctx context.Context, in GetAgentRequest) (*GetAgentResponse, error)
	ListAgents(ctx context.Context, in ListAgentsRequest) (*ListAgentsResponse, error)
}
