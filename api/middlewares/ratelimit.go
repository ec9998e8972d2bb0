package middlewares

import (
	"net/http"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
	"golang.org/x/time/rate"
)

// PerClientRateLimit throttles public requests per client IP, mainly to slow
// down password guessing. perMinute <= 0 disables the limit.
func PerClientRateLimit(perMinute int, catalog *l10n.Catalog) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var mu sync.Mutex
	limiters := ttlworker.NewCache[string, *rate.Limiter](10 * time.Minute)
	limit := rate.Limit(float64(perMinute) / 60)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		limiter := limiters.Get(ip)
		if limiter == nil {
			limiter = rate.NewLimiter(limit, perMinute)
		}
		limiters.Set(ip, limiter)
		mu.Unlock()

		if !limiter.Allow() {
			tool.DefaultLogger.Warnf("[RateLimit] Too many requests from %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, tool.FastReturnError(
				catalog.Translate(c.GetHeader("Accept-Language"), l10n.TooManyAttempts)))
			return
		}
		c.Next()
	}
}
