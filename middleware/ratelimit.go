package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rateLimitMessage = "Too many requests. Please try again later."

// RateLimit is a fixed window: at most Max requests per Window for one
// client on one route. Name keeps counters of different limits apart.
type RateLimit struct {
	Name   string
	Window time.Duration
	Max    int64
}

var (
	APILimit      = RateLimit{Name: "api", Window: 15 * time.Minute, Max: 100}
	LoginLimit    = RateLimit{Name: "login", Window: 15 * time.Minute, Max: 5}
	PasswordLimit = RateLimit{Name: "password", Window: time.Hour, Max: 3}
	EmailLimit    = RateLimit{Name: "email", Window: time.Hour, Max: 5}
)

// RateLimiter enforces limit using the shared store. Store failures let the
// request through.
func RateLimiter(limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := limit.Name + ":" + c.ClientIP() + "-" + route

		count, reset, err := svc.Store.Hit(c.Request.Context(), key, limit.Window)
		if err != nil {
			svc.Logger.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := limit.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit.Max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > limit.Max {
			retryAfter := int64(math.Ceil(time.Until(reset).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    rateLimitMessage,
				"retryAfter": retryAfter,
			})
			return
		}
		c.Next()
	}
}
