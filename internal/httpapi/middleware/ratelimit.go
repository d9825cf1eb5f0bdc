package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/esaudezap/backend/internal/common"
)

// ExchangeLimiter is the per-user request budget behind the chat surface.
type ExchangeLimiter interface {
	Allow(ctx context.Context, userID uint64) (bool, error)
}

// RateLimit caps chat exchanges per user. A nil limiter disables the check.
// Limiter backend failures let the request through; the limiter protects
// the providers, it is not an availability dependency.
func RateLimit(limiter ExchangeLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		uid, ok := UserID(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, 40100, "unauthorized")
			c.Abort()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), uid)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42900, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
