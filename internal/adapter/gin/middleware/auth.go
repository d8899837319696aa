package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-rating-service/pkg/logger"
	"agent-rating-service/pkg/security"
)

// claimsKey is the gin context key holding the verified token claims.
const claimsKey = "auth.claims"

// Auth verifies the bearer token and stores its claims on the request.
// The account ID also lands on the request context so downstream logs
// carry it.
func Auth(tokens *security.TokenManager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "authorization header must be a bearer token")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			log.Warn("rejected request with bad token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			if errors.Is(err, security.ErrTokenExpired) {
				unauthorized(c, "token expired")
				return
			}
			unauthorized(c, "invalid token")
			return
		}

		c.Set(claimsKey, claims)
		ctx := context.WithValue(c.Request.Context(), logger.AccountIDKey, claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// OptionalAuth verifies a bearer token when one is supplied and stores its
// claims, but lets anonymous requests through. A supplied-but-invalid token
// is still rejected so callers cannot silently downgrade to anonymous.
func OptionalAuth(tokens *security.TokenManager, log *zap.Logger) gin.HandlerFunc {
	authed := Auth(tokens, log)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		authed(c)
	}
}

// RequireRole rejects requests whose account lacks the given role.
// It must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			unauthorized(c, "authentication required")
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth, if any.
func ClaimsFrom(c *gin.Context) (*security.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": msg,
	})
}
