package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// Gin context keys set by APIKeyMiddleware.
const (
	tenantCtxKey = "tenant_id"
	keyIDCtxKey  = "api_key_id"
)

// APIKeyMiddleware enforces multi-tenancy by mapping X-API-Key → tenantID.
// In production this mapping would typically come from IAM/JWT/Secret Manager.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-API-Key header"})
			return
		}
		tenantID, ok := keys[apiKey]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(tenantCtxKey, tenantID)
		c.Set(keyIDCtxKey, KeyID(apiKey))
		c.Next()
	}
}

// KeyID is a stable identifier of an API key that does not reveal it.
func KeyID(apiKey string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(apiKey))
}

// TenantID returns the authenticated tenant ID from the request context.
func TenantID(c *gin.Context) string {
	return c.GetString(tenantCtxKey)
}

// APIKeyID returns the authenticated key's id from the request context.
func APIKeyID(c *gin.Context) string {
	return c.GetString(keyIDCtxKey)
}
