package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-rating-service/internal/usecase/ranking"
)

// RankingHandler handles HTTP requests for leaderboard reads and rebuilds
type RankingHandler struct {
	uc  ranking.Usecase
	log *zap.Logger
}

// NewRankingHandler creates a new RankingHandler instance
func NewRankingHandler(uc ranking.Usecase, log *zap.Logger) *RankingHandler {
	return &RankingHandler{
		uc:  uc,
		log: log,
	}
}

// RankingEntryResponse represents one leaderboard row
type RankingEntryResponse struct {
	Rank         int64   `json:"rank"`
	AgentID      int64   `json:"agent_id"`
	AverageScore float64 `json:"average_score"`
	RatingCount  int64   `json:"rating_count"`
}

// RankingResponse represents the HTTP response for a leaderboard read
type RankingResponse struct {
	Window  string                 `json:"window"`
	Entries []RankingEntryResponse `json:"entries"`
}

// RebuildResponse represents the HTTP response after a leaderboard rebuild
type RebuildResponse struct {
	Windows []string `json:"windows"`
}

// Overall handles GET /api/rankings/overall
func (h *RankingHandler) Overall(c *gin.Context) {
	resp, err := h.uc.Overall(c.Request.Context(), ranking.OverallRequest{
		Limit: parseLimitQuery(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toRankingResponse(resp))
}

// Weekly handles GET /api/rankings/weekly
func (h *RankingHandler) Weekly(c *gin.Context) {
	resp, err := h.uc.Weekly(c.Request.Context(), ranking.WeeklyRequest{
		Week:  c.Query("week"),
		Limit: parseLimitQuery(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toRankingResponse(resp))
}

// Monthly handles GET /api/rankings/monthly
func (h *RankingHandler) Monthly(c *gin.Context) {
	resp, err := h.uc.Monthly(c.Request.Context(), ranking.MonthlyRequest{
		Month: c.Query("month"),
		Limit: parseLimitQuery(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toRankingResponse(resp))
}

// ByCategory handles GET /api/rankings/categories/:category
func (h *RankingHandler) ByCategory(c *gin.Context) {
	resp, err := h.uc.ByCategory(c.Request.Context(), ranking.CategoryRequest{
		Category: c.Param("category"),
		Limit:    parseLimitQuery(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toRankingResponse(resp))
}

// Rebuild handles POST /api/rankings/rebuild
func (h *RankingHandler) Rebuild(c *gin.Context) {
	resp, err := h.uc.Rebuild(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, RebuildResponse{Windows: resp.Windows})
}

func toRankingResponse(resp *ranking.TopResponse) RankingResponse {
	entries := make([]RankingEntryResponse, len(resp.Entries))
	for i, e := range resp.Entries {
		entries[i] = RankingEntryResponse{
			Rank:         e.Rank,
			AgentID:      e.AgentID,
			AverageScore: e.AverageScore,
			RatingCount:  e.RatingCount,
		}
	}
	return RankingResponse{
		Window:  resp.Window,
		Entries: entries,
	}
}
