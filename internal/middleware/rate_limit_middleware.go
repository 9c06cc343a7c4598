package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
)

// Limiter 고정 구간 요청 카운터 (pkg/redis.RateLimiter)
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit limits requests per client IP under scope. A nil limiter lets everything through.
// Counter failures are logged and the request is allowed.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		log := GetLoggerFromContext(c)
		key := scope + ":" + c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		allowed, err := limiter.Allow(ctx, key)
		cancel()
		if err != nil {
			log.Warn("Rate limiter unavailable", map[string]interface{}{
				"scope": scope,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		if !allowed {
			log.Warn("Rate limit exceeded", map[string]interface{}{
				"scope": scope,
				"ip":    c.ClientIP(),
			})
			apperrors.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
