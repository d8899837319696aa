package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-rating-service/internal/usecase/rating"
)

// RatingHandler handles HTTP requests for rating submission and reads
type RatingHandler struct {
	uc  rating.Usecase
	log *zap.Logger
}

// NewRatingHandler creates a new RatingHandler instance
func NewRatingHandler(uc rating.Usecase, log *zap.Logger) *RatingHandler {
	return &RatingHandler{
		uc:  uc,
		log: log,
	}
}

// SubmitRatingRequest represents the HTTP request body for submitting a rating
type SubmitRatingRequest struct {
	AgentID     int64  `json:"agent_id" binding:"required,gt=0"`
	Score       int    `json:"score" binding:"required,min=1,max=5"`
	Category    string `json:"category" binding:"required,oneof=billing technical account general"`
	Comment     string `json:"comment" binding:"omitempty,max=500"`
	CustomerRef string `json:"customer_ref" binding:"omitempty,max=100"`
}

// RatingResponse represents the HTTP response for rating data
type RatingResponse struct {
	ID          int64     `json:"id"`
	AgentID     int64     `json:"agent_id"`
	Score       int       `json:"score"`
	Category    string    `json:"category"`
	Comment     string    `json:"comment,omitempty"`
	CustomerRef string    `json:"customer_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListRatingsResponse represents the HTTP response for an agent's ratings
type ListRatingsResponse struct {
	AgentID    int64            `json:"agent_id"`
	Ratings    []RatingResponse `json:"ratings"`
	Pagination *Pagination      `json:"pagination,omitempty"`
}

// CategoryStatsResponse summarizes one category inside the stats response
type CategoryStatsResponse struct {
	RatingCount  int64   `json:"rating_count"`
	AverageScore float64 `json:"average_score"`
}

// AgentStatsResponse represents the HTTP response for agent statistics
type AgentStatsResponse struct {
	AgentID      int64                            `json:"agent_id"`
	RatingCount  int64                            `json:"rating_count"`
	AverageScore float64                          `json:"average_score"`
	ScoreCounts  map[int]int64                    `json:"score_counts"`
	Categories   map[string]CategoryStatsResponse `json:"categories"`
}

// SubmitRating handles POST /api/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid submit rating request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.SubmitRating(c.Request.Context(), rating.SubmitRatingRequest{
		AgentID:     req.AgentID,
		Score:       req.Score,
		Category:    req.Category,
		Comment:     req.Comment,
		CustomerRef: req.CustomerRef,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, RatingResponse{
		ID:        resp.ID,
		AgentID:   resp.AgentID,
		Score:     resp.Score,
		Category:  resp.Category,
		CreatedAt: resp.CreatedAt,
	})
}

// ListAgentRatings handles GET /api/agents/:id/ratings
func (h *RatingHandler) ListAgentRatings(c *gin.Context) {
	agentID, ok := parseIDParam(c, h.log)
	if !ok {
		return
	}
	page, limit := parsePageQuery(c)

	resp, err := h.uc.ListByAgent(c.Request.Context(), rating.ListRatingsRequest{
		AgentID: agentID,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ratings := make([]RatingResponse, len(resp.Ratings))
	for i, r := range resp.Ratings {
		ratings[i] = RatingResponse{
			ID:          r.ID,
			AgentID:     r.AgentID,
			Score:       r.Score,
			Category:    r.Category,
			Comment:     r.Comment,
			CustomerRef: r.CustomerRef,
			CreatedAt:   r.CreatedAt,
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

	c.JSON(http.StatusOK, ListRatingsResponse{
		AgentID:    agentID,
		Ratings:    ratings,
		Pagination: pagination,
	})
}

// GetAgentStats handles GET /api/agents/:id/stats
func (h *RatingHandler) GetAgentStats(c *gin.Context) {
	agentID, ok := parseIDParam(c, h.log)
	if !ok {
		return
	}

	resp, err := h.uc.GetAgentStats(c.Request.Context(), rating.GetStatsRequest{AgentID: agentID})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	categories := make(map[string]CategoryStatsResponse, len(resp.Categories))
	for name, cs := range resp.Categories {
		categories[name] = CategoryStatsResponse{
			RatingCount:  cs.RatingCount,
			AverageScore: cs.AverageScore,
		}
	}

	c.JSON(http.StatusOK, AgentStatsResponse{
		AgentID:      resp.AgentID,
		RatingCount:  resp.RatingCount,
		AverageScore: resp.AverageScore,
		ScoreCounts:  resp.ScoreCounts,
		Categories:   categories,
	})
}
