package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-rating-service/internal/usecase/agent"
)

// AgentHandler handles HTTP requests for agent management
type AgentHandler struct {
	uc  agent.Usecase
	log *zap.Logger
}

// NewAgentHandler creates a new AgentHandler instance
func NewAgentHandler(uc agent.Usecase, log *zap.Logger) *AgentHandler {
	return &AgentHandler{
		uc:  uc,
		log: log,
	}
}

// CreateAgentRequest represents the HTTP request body for onboarding an agent
type CreateAgentRequest struct {
	Name  string `json:"name" binding:"required,min=3,max=100"`
	Email string `json:"email" binding:"required,email"`
	Team  string `json:"team" binding:"omitempty,max=100"`
}

// UpdateAgentRequest represents the HTTP request body for updating an agent
type UpdateAgentRequest struct {
	Name   string `json:"name" binding:"omitempty,min=3,max=100"`
	Email  string `json:"email" binding:"omitempty,email"`
	Team   string `json:"team" binding:"omitempty,max=100"`
	Active *bool  `json:"active"`
}

// AgentResponse represents the HTTP response for agent data
type AgentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Team      string    `json:"team,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ListAgentsResponse represents the HTTP response for listing agents
type ListAgentsResponse struct {
	Agents     []AgentResponse `json:"agents"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// CreateAgent handles POST /api/agents
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create agent request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.CreateAgent(c.Request.Context(), agent.CreateAgentRequest{
		Name:  req.Name,
		Email: req.Email,
		Team:  req.Team,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id": resp.ID,
	})
}

// GetAgent handles GET /api/agents/:id
func (h *AgentHandler) GetAgent(c *gin.Context) {
	id, ok := parseIDParam(c, h.log)
	if !ok {
		return
	}

	resp, err := h.uc.GetAgent(c.Request.Context(), agent.GetAgentRequest{ID: id})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, AgentResponse{
		ID:        resp.ID,
		Name:      resp.Name,
		Email:     resp.Email,
		Team:      resp.Team,
		Active:    resp.Active,
		CreatedAt: resp.CreatedAt,
	})
}

// UpdateAgent handles PUT /api/agents/:id
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	id, ok := parseIDParam(c, h.log)
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid update agent request", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.UpdateAgent(c.Request.Context(), agent.UpdateAgentRequest{
		ID:     id,
		Name:   req.Name,
		Email:  req.Email,
		Team:   req.Team,
		Active: req.Active,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id": resp.ID,
	})
}

// DeleteAgent handles DELETE /api/agents/:id
func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	id, ok := parseIDParam(c, h.log)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteAgent(c.Request.Context(), agent.DeleteAgentRequest{ID: id})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              resp.ID,
		"ratings_deleted": resp.RatingsDeleted,
	})
}

// ListAgents handles GET /api/agents
func (h *AgentHandler) ListAgents(c *gin.Context) {
	query := c.DefaultQuery("query", "")
	page, limit := parsePageQuery(c)

	resp, err := h.uc.ListAgents(c.Request.Context(), agent.ListAgentsRequest{
		Query: query,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	agents := make([]AgentResponse, len(resp.Agents))
	for i, a := range resp.Agents {
		agents[i] = AgentResponse{
			ID:        a.ID,
			Name:      a.Name,
			Email:     a.Email,
			Team:      a.Team,
			Active:    a.Active,
			CreatedAt: a.CreatedAt,
		}
	}

	var pagination *Pagination
	if resp.Pagination != nil {
		pagination = &Pagination{
			Total:      resp.Pagination.Total,
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			TotalPages: resp.Pagination.TotalPages,
		}
	}

	c.JSON(http.StatusOK, ListAgentsResponse{
		Agents:     agents,
		Pagination: pagination,
	})
}
