package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/auth"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
)

// respondQueryError maps validation failures to 400 and everything else to
// 500. Store errors are logged but not echoed to the client.
func respondQueryError(c *gin.Context, log logrus.FieldLogger, err error) {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	log.WithError(err).WithField("tenant", auth.TenantID(c)).Error("query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}

// requireTenant returns the authenticated tenant, rejecting a payload orgId
// that names a different one.
func requireTenant(c *gin.Context, orgID string) (string, bool) {
	tenantID := auth.TenantID(c)
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	if orgID != "" && orgID != tenantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "orgId mismatch"})
		return "", false
	}
	return tenantID, true
}
