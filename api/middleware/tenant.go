package middleware

import "github.com/gin-gonic/gin"

// tenantHeader is the header callers set to scope a request to a tenant.
const tenantHeader = "X-Tenant-ID"

// TenantID extracts the caller's tenant from the X-Tenant-ID header,
// falling back to defaultTenant when absent, and stores it in the gin
// context under "tenant_id" for downstream handlers and middleware.
func TenantID(defaultTenant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader(tenantHeader)
		if tenant == "" {
			tenant = defaultTenant
		}
		c.Set("tenant_id", tenant)
		c.Next()
	}
}

// Tenant reads the tenant id a prior TenantID middleware stored.
func Tenant(c *gin.Context) string {
	v, ok := c.Get("tenant_id")
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
