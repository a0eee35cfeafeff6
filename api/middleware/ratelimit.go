package middleware

import (
	"net/http"

	"contentfp/resilience"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles requests per tenant, reusing the resilience
// registry's lazily-created, provider-keyed token buckets — here keyed
// by tenant id instead of upstream provider name.
func RateLimit(registry *resilience.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := Tenant(c)
		if tenant == "" {
			tenant = "unknown"
		}
		if !registry.Limiter(tenant).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
