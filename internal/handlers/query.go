package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
)

// RegisterQueryRoutes registers the serving-path query endpoints.
//
// POST /query/table       grouped rows plus totals
// POST /query/timeseries  one value per time bucket (and dimension)
// POST /query/freeform    legacy builder shape, paged by offset
//
// The tenant always comes from the API key; a body orgId must match it.
func RegisterQueryRoutes(r gin.IRoutes, svc *cache.Service, log logrus.FieldLogger) {
	r.POST("/query/table", func(c *gin.Context) {
		var req query.TableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		tenantID, ok := requireTenant(c, req.OrgID)
		if !ok {
			return
		}
		q, err := query.New(tenantID, req)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		res, err := svc.Table(c.Request.Context(), q)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.POST("/query/timeseries", func(c *gin.Context) {
		var req query.SeriesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		tenantID, ok := requireTenant(c, req.OrgID)
		if !ok {
			return
		}
		q, err := query.NewSeries(tenantID, req)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		res, err := svc.Series(c.Request.Context(), q)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.POST("/query/freeform", func(c *gin.Context) {
		var req query.FreeformRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		tenantID, ok := requireTenant(c, req.OrgID)
		if !ok {
			return
		}
		q, offset, err := query.NewFreeform(tenantID, req)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		res, err := svc.Freeform(c.Request.Context(), q, offset)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}
