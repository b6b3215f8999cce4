package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

type RateLimiter interface {
	IsAllowed(ctx context.Context, clientID, tier string) (bool, *models.RateLimitInfo, error)
}

var _ RateLimiter = (*services.RateLimitService)(nil)

// RateLimit must run after Auth. Unauthenticated requests are keyed by
// client IP on the free tier.
func RateLimit(limiter RateLimiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, tier := GetClientFromContext(c)
		if clientID == "" {
			clientID = "ip:" + c.ClientIP()
		}
		if tier == "" {
			tier = "free"
		}

		allowed, info, err := limiter.IsAllowed(c.Request.Context(), clientID, tier)
		if err != nil {
			// Redis being down must not block requests.
			logger.WithError(err).Error("Failed to check rate limit")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"tier":      tier,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			return
		}

		c.Next()
	}
}
