package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

const (
	clientIDKey   = "client_id"
	clientTierKey = "client_tier"
)

// Authenticator validates API keys and bearer tokens.
type Authenticator interface {
	ValidateAPIKey(apiKey string) (string, string, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

var _ Authenticator = (*services.AuthService)(nil)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Auth accepts "Bearer <jwt>" or "Bearer <api key>". A credential without
// dots is treated as an API key.
func Auth(auth Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		scheme, credential, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" || credential == "" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		if !strings.Contains(credential, ".") {
			clientID, tier, err := auth.ValidateAPIKey(credential)
			if err != nil {
				logger.WithError(err).WithField("client_ip", c.ClientIP()).Warn("Invalid API key")
				abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
				return
			}
			c.Set(clientIDKey, clientID)
			c.Set(clientTierKey, tier)
			c.Next()
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), credential)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				logger.WithError(err).Error("Token validation failed")
			} else {
				logger.WithError(err).Warn("Invalid JWT token")
			}
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(clientIDKey, claims.ClientID)
		c.Set(clientTierKey, claims.Tier)
		c.Next()
	}
}

// GetClientFromContext returns the authenticated client id and tier. Both
// are empty when the request did not pass through Auth.
func GetClientFromContext(c *gin.Context) (string, string) {
	return c.GetString(clientIDKey), c.GetString(clientTierKey)
}
