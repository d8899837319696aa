package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/gin/middleware"
	"agent-rating-service/internal/domain/account"
	"agent-rating-service/internal/usecase/auth"
)

// AuthHandler handles HTTP requests for account registration and login
type AuthHandler struct {
	uc  auth.Usecase
	log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc auth.Usecase, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		uc:  uc,
		log: log,
	}
}

// RegisterRequest represents the HTTP request body for account registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=admin member"`
}

// RegisterResponse represents the HTTP response after registration
type RegisterResponse struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// LoginRequest represents the HTTP request body for credential login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the HTTP response carrying the bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// Register handles POST /api/auth/register. Anyone may register a member
// account; requesting the admin role requires an admin bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if req.Role == account.RoleAdmin {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok || claims.Role != account.RoleAdmin {
			h.log.Warn("admin registration denied", zap.String("email", req.Email))
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "only admins can create admin accounts",
			})
			return
		}
	}

	resp, err := h.uc.Register(c.Request.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, RegisterResponse{
		ID:   resp.ID,
		Role: resp.Role,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.Login(c.Request.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		Role:      resp.Role,
	})
}
